package commands

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedYAML = `addresses:
  - cep: "01001-000"
    street: Praça da Sé
    neighborhood: Sé
    city: São Paulo
    state: SP
`

func viaCEPServer(t *testing.T, healthy bool) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		switch {
		case strings.HasPrefix(r.URL.Path, "/01001000/"):
			w.Write([]byte(`{"cep":"01001-000","logradouro":"Praça da Sé","bairro":"Sé","localidade":"São Paulo","uf":"SP"}`))
		case strings.HasPrefix(r.URL.Path, "/20040020/"):
			w.Write([]byte(`{"cep":"20040-020","logradouro":"Avenida Rio Branco","bairro":"Centro","localidade":"Rio de Janeiro","uf":"RJ","ibge":"3304557","ddd":"21"}`))
		default:
			w.Write([]byte(`{"erro":"true"}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, viacepURL string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DATABASE_URL", "")

	seed := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(seed, []byte(seedYAML), 0o600))

	var out, errOut bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--seed-file", seed, "--viacep-url", viacepURL, "--log-level", "error"}, args...))

	err := root.Execute()
	return out.String(), err
}

func TestSearch(t *testing.T) {
	api := viaCEPServer(t, true)

	tests := []struct {
		name    string
		cep     string
		wantErr bool
		want    []string
	}{
		{
			name: "found",
			cep:  "01001-000",
			want: []string{"[success] Sucesso: Endereço encontrado!", "CEP:         01001-000", "São Paulo/SP"},
		},
		{
			name:    "not found",
			cep:     "20040020",
			wantErr: true,
			want:    []string{"[warning] Aviso: Endereço não encontrado"},
		},
		{
			name:    "incomplete",
			cep:     "1234",
			wantErr: true,
			want:    []string{"[error] Erro: Digite um CEP válido com 8 dígitos"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, api.URL, "search", tt.cep)
			if tt.wantErr {
				assert.ErrorIs(t, err, errUnsuccessful)
			} else {
				assert.NoError(t, err)
			}
			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestSync(t *testing.T) {
	api := viaCEPServer(t, true)

	out, err := run(t, api.URL, "sync", "20040-020")
	require.NoError(t, err)
	assert.Contains(t, out, "[success] Sucesso: Endereço sincronizado com sucesso!")
	assert.Contains(t, out, "Rio de Janeiro/RJ")

	out, err = run(t, api.URL, "sync", "99999999")
	assert.ErrorIs(t, err, errUnsuccessful)
	assert.Contains(t, out, "[warning] Aviso: Endereço não encontrado na API externa")
}

func TestSync_ServiceDown(t *testing.T) {
	api := viaCEPServer(t, false)

	out, err := run(t, api.URL, "sync", "20040020")
	assert.ErrorIs(t, err, errUnsuccessful)
	assert.Contains(t, out, "[error] Erro: Erro inesperado na sincronização")
}

func TestStatus(t *testing.T) {
	out, err := run(t, viaCEPServer(t, true).URL, "status")
	require.NoError(t, err)
	assert.Equal(t, "Serviço Online\n", out)

	out, err = run(t, viaCEPServer(t, false).URL, "status")
	assert.ErrorIs(t, err, errUnsuccessful)
	assert.Equal(t, "Serviço Offline\n", out)
}

func TestSeed(t *testing.T) {
	api := viaCEPServer(t, true)

	file := filepath.Join(t.TempDir(), "more.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`addresses:
  - cep: "01001000"
    street: Praça da Sé
    city: São Paulo
    state: SP
  - cep: "20040020"
    street: Avenida Rio Branco
    city: Rio de Janeiro
    state: RJ
`), 0o600))

	out, err := run(t, api.URL, "seed", file)
	require.NoError(t, err)
	assert.Equal(t, "1 of 2 addresses written\n", out, "the startup seed already holds 01001000")

	out, err = run(t, api.URL, "seed", "--force", file)
	require.NoError(t, err)
	assert.Equal(t, "2 of 2 addresses written\n", out)
}

func TestSeed_InvalidFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(file, []byte("addresses:\n  - cep: \"123\"\n    city: X\n    state: SP\n"), 0o600))

	_, err := run(t, viaCEPServer(t, true).URL, "seed", file)
	assert.Error(t, err)
}

func TestMigrate_NeedsDatabase(t *testing.T) {
	_, err := run(t, viaCEPServer(t, true).URL, "migrate")
	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestArgs(t *testing.T) {
	_, err := run(t, viaCEPServer(t, true).URL, "search")
	assert.Error(t, err)
}
