package lookup

import "github.com/dukerupert/cepfinder/internal/notify"

const (
	titleSuccess = "Sucesso"
	titleWarning = "Aviso"
	titleError   = "Erro"
	titleBusy    = "Aguarde"
)

var (
	invalidCEP = notify.Error(titleError, "Digite um CEP válido com 8 dígitos")
	busy       = notify.Info(titleBusy, "Uma consulta já está em andamento")
)

type messages struct {
	found    notify.Notification
	notFound notify.Notification
	failed   notify.Notification
}

var workflowMessages = map[Kind]messages{
	KindSearch: {
		found:    notify.Success(titleSuccess, "Endereço encontrado!"),
		notFound: notify.Warning(titleWarning, "Endereço não encontrado"),
		failed:   notify.Error(titleError, "Erro inesperado na busca de endereço"),
	},
	KindSync: {
		found:    notify.Success(titleSuccess, "Endereço sincronizado com sucesso!"),
		notFound: notify.Warning(titleWarning, "Endereço não encontrado na API externa"),
		failed:   notify.Error(titleError, "Erro inesperado na sincronização"),
	},
}
