package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/farmaconnect/farmaconnect/internal/domain/inventory"
	"github.com/farmaconnect/farmaconnect/internal/domain/pharmacy"
)

func strPtr(s string) *string { return &s }

type seedInventory struct {
	medicationCode string
	currentStock   int
	minThreshold   int
}

type seedPharmacy struct {
	pharmacy  pharmacy.Pharmacy
	inventory []seedInventory
}

var seedMedications = []pharmacy.Medication{
	{Code: "MED001", Name: "Acetaminofen 500mg", Description: strPtr("Analgesico y antipiretico, caja x 24 tabletas")},
	{Code: "MED002", Name: "Ibuprofeno 400mg", Description: strPtr("Antiinflamatorio no esteroideo, caja x 30 tabletas")},
	{Code: "MED003", Name: "Amoxicilina 500mg", Description: strPtr("Antibiotico de amplio espectro, caja x 21 capsulas")},
}

var seedPharmacies = []seedPharmacy{
	{
		pharmacy: pharmacy.Pharmacy{
			Name:                  "Farmacia Central EPS",
			Address:               strPtr("Calle 10 #5-23, Bogota"),
			Phone:                 strPtr("601-555-0101"),
			DailyDigitalTurnLimit: 25,
		},
		inventory: []seedInventory{
			{"MED001", 120, 20},
			{"MED002", 45, 15},
			{"MED003", 8, 10},
		},
	},
	{
		pharmacy: pharmacy.Pharmacy{
			Name:                  "Farmacia Norte",
			Address:               strPtr("Avenida 68 #100-20, Bogota"),
			Phone:                 strPtr("601-555-0102"),
			DailyDigitalTurnLimit: 30,
		},
		inventory: []seedInventory{
			{"MED001", 60, 20},
			{"MED002", 0, 15},
			{"MED003", 35, 10},
		},
	},
	{
		pharmacy: pharmacy.Pharmacy{
			Name:                  "Farmacia Sur",
			Address:               strPtr("Carrera 30 #45-12, Bogota"),
			Phone:                 strPtr("601-555-0103"),
			DailyDigitalTurnLimit: 20,
		},
		inventory: []seedInventory{
			{"MED001", 200, 20},
			{"MED003", 15, 10},
		},
	},
}

// runSeed loads the sample network. Re-running is safe: medications are
// skipped when they already exist and pharmacies are matched by name.
func runSeed(ctx context.Context, pool *pgxpool.Pool) error {
	logger := zerolog.Nop()
	pharmacySvc := pharmacy.NewService(pharmacy.NewRepo(pool), logger)
	inventorySvc := inventory.NewService(inventory.NewRepo(pool), nil, logger)

	for _, med := range seedMedications {
		m := med
		err := pharmacySvc.CreateMedication(ctx, &m)
		if errors.Is(err, pharmacy.ErrDuplicateMedication) {
			continue
		}
		if err != nil {
			return fmt.Errorf("seed medication %s: %w", med.Code, err)
		}
		fmt.Printf("created medication %s (%s)\n", m.Code, m.Name)
	}

	existing, err := pharmacySvc.List(ctx)
	if err != nil {
		return err
	}
	byName := make(map[string]*pharmacy.Pharmacy, len(existing))
	for _, p := range existing {
		byName[p.Name] = p
	}

	for _, sp := range seedPharmacies {
		p := sp.pharmacy
		if found, ok := byName[p.Name]; ok {
			p.ID = found.ID
		} else {
			if err := pharmacySvc.Create(ctx, &p); err != nil {
				return fmt.Errorf("seed pharmacy %s: %w", p.Name, err)
			}
			fmt.Printf("created pharmacy %s (id %d)\n", p.Name, p.ID)
		}

		for _, si := range sp.inventory {
			item := &inventory.Item{
				PharmacyID:     p.ID,
				MedicationCode: si.medicationCode,
				CurrentStock:   si.currentStock,
				MinThreshold:   si.minThreshold,
			}
			if err := inventorySvc.UpsertItem(ctx, item); err != nil {
				return fmt.Errorf("seed inventory %s/%s: %w", p.Name, si.medicationCode, err)
			}
		}
		fmt.Printf("seeded %d inventory item(s) for %s\n", len(sp.inventory), p.Name)
	}

	return nil
}
