package address

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dukerupert/cepfinder/internal/cep"
	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Addresses []Address `yaml:"addresses"`
}

// LoadSeed reads a YAML list of addresses:
//
//	addresses:
//	  - cep: "01001-000"
//	    street: Praça da Sé
//	    neighborhood: Sé
//	    city: São Paulo
//	    state: SP
//
// CEPs may be formatted; they are normalized before validation.
func LoadSeed(r io.Reader) ([]Address, error) {
	var file seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode seed file: %w", err)
	}

	for i := range file.Addresses {
		addr := &file.Addresses[i]
		addr.CEP = cep.Normalize(addr.CEP).Digits
		addr.Source = SourceSeed
		if err := Validate(*addr); err != nil {
			return nil, fmt.Errorf("seed entry %d: %w", i, err)
		}
	}

	return file.Addresses, nil
}

// LoadSeedFile opens path and reads it with LoadSeed.
func LoadSeedFile(path string) ([]Address, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()

	return LoadSeed(f)
}

// Seed upserts addrs into store and returns how many were written.
func Seed(ctx context.Context, store Store, addrs []Address) (int, error) {
	for i, addr := range addrs {
		if _, err := store.Upsert(ctx, addr); err != nil {
			return i, fmt.Errorf("failed to seed %s: %w", addr.CEP, err)
		}
	}
	return len(addrs), nil
}
