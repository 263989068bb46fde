package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/AntonStoeckl/bike-loan-engine-go/core"
	"github.com/AntonStoeckl/bike-loan-engine-go/loanstore"
)

var errInvalidSeed = errors.New("invalid seed file")

// seedFile lists the fleet and the borrower contacts, normally owned by the inventory and identity systems.
type seedFile struct {
	Assets []struct {
		Serial           string `yaml:"serial"`
		Status           string `yaml:"status"`
		Brand            string `yaml:"brand"`
		Kind             string `yaml:"kind"`
		Description      string `yaml:"description"`
		LastMaintainedOn string `yaml:"last_maintained_on"`
	} `yaml:"assets"`
	Borrowers []struct {
		ID    string `yaml:"id"`
		Name  string `yaml:"name"`
		Email string `yaml:"email"`
	} `yaml:"borrowers"`
}

// seedStore upserts the assets and borrowers of path. An empty path is a no-op.
func seedStore(ctx context.Context, path string, inventory loanstore.Inventory, logger *slog.Logger) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading seed file: %w", err)
	}

	var seed seedFile
	if err = yaml.Unmarshal(data, &seed); err != nil {
		return errors.Join(errInvalidSeed, err)
	}

	for _, a := range seed.Assets {
		asset := core.Asset{
			Serial:      a.Serial,
			Status:      core.AssetStatus(a.Status),
			Brand:       a.Brand,
			Kind:        a.Kind,
			Description: a.Description,
		}

		if asset.Status == "" {
			asset.Status = core.AssetAvailable
		}

		if asset.Serial == "" || !asset.Status.IsValid() {
			return fmt.Errorf("%w: asset %q has status %q", errInvalidSeed, a.Serial, a.Status)
		}

		if a.LastMaintainedOn != "" {
			maintained, parseErr := time.Parse(time.DateOnly, a.LastMaintainedOn)
			if parseErr != nil {
				return errors.Join(errInvalidSeed, parseErr)
			}
			asset.LastMaintainedOn = &maintained
		}

		if err = inventory.SaveAsset(ctx, asset); err != nil {
			return err
		}
	}

	for _, b := range seed.Borrowers {
		if b.ID == "" || b.Email == "" {
			return fmt.Errorf("%w: borrower %q needs an id and an email", errInvalidSeed, b.ID)
		}

		if err = inventory.SaveBorrower(ctx, core.Borrower{ID: b.ID, Name: b.Name, Email: b.Email}); err != nil {
			return err
		}
	}

	logger.Info("seed applied", "assets", len(seed.Assets), "borrowers", len(seed.Borrowers))

	return nil
}
