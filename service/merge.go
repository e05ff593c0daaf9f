package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/AnTengye/fleetdocs/model"
	"github.com/AnTengye/fleetdocs/store"
)

// Merger folds an extracted document into the matched vehicle's contract
// state: update the active contract when one exists, insert a new one when
// none does. The document kind decides which file slot the uploaded URL
// lands in; the other slot is never touched, so a vehicle accumulates both
// its application form and its certificate across separate uploads.
type Merger struct {
	registry store.Registry
}

func NewMerger(registry store.Registry) *Merger {
	return &Merger{registry: registry}
}

// Merge applies the staged document to the vehicle and returns a
// human-readable outcome line for the batch log.
func (m *Merger) Merge(ctx context.Context, vehicle *model.Vehicle, doc *model.StagedDocument) (string, error) {
	m.backfillBrand(ctx, vehicle, doc.Payload)

	contract, err := m.registry.FindActiveContract(ctx, vehicle.ID)
	if err != nil {
		return "", err
	}

	if contract != nil {
		applyPayload(contract, doc.Payload)
		setFileSlot(contract, doc.Kind, doc.FileURL)
		if err := m.registry.UpdateContract(ctx, contract); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s: updated active contract of %s", doc.Filename, vehicle.PlateNo), nil
	}

	contract = &model.Contract{
		VehicleID: vehicle.ID,
		Status:    model.ContractStatusActive,
	}
	applyPayload(contract, doc.Payload)
	setFileSlot(contract, doc.Kind, doc.FileURL)
	if err := m.registry.InsertContract(ctx, contract); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s: new contract registered for %s", doc.Filename, vehicle.PlateNo), nil
}

// backfillBrand fills the vehicle's brand from the extraction when the
// registry holds nothing useful. Best-effort: a failure is logged and the
// contract write proceeds.
func (m *Merger) backfillBrand(ctx context.Context, vehicle *model.Vehicle, payload *model.ExtractedDocument) {
	if payload == nil {
		return
	}
	if isPlaceholderBrand(payload.Brand) || !isPlaceholderBrand(vehicle.Brand) {
		return
	}
	if err := m.registry.UpdateVehicleBrand(ctx, vehicle.ID, payload.Brand); err != nil {
		slog.Warn("brand backfill failed",
			"vehicle_id", vehicle.ID,
			"brand", payload.Brand,
			"error", err,
		)
		return
	}
	vehicle.Brand = payload.Brand
}

func isPlaceholderBrand(brand string) bool {
	switch strings.ToLower(strings.TrimSpace(brand)) {
	case "", "-", "?", "unknown", "n/a":
		return true
	}
	return false
}

// applyPayload copies extracted contract attributes onto the contract.
// Empty extracted fields never overwrite stored values.
func applyPayload(contract *model.Contract, payload *model.ExtractedDocument) {
	if payload == nil {
		return
	}
	if payload.Insurer != "" {
		contract.Insurer = payload.Insurer
	}
	if payload.PolicyNo != "" {
		contract.PolicyNo = payload.PolicyNo
	}
	if payload.StartDate != "" {
		contract.StartDate = payload.StartDate
	}
	if payload.EndDate != "" {
		contract.EndDate = payload.EndDate
	}
	if payload.PremiumAmount > 0 {
		contract.PremiumAmount = payload.PremiumAmount
	}
	if payload.TaxAmount > 0 {
		contract.TaxAmount = payload.TaxAmount
	}
	if payload.TotalAmount > 0 {
		contract.TotalAmount = payload.TotalAmount
	}
	if payload.Coverage != "" {
		contract.Coverage = payload.Coverage
	}
	if payload.Installments != "" {
		contract.Installments = payload.Installments
	}
}

// setFileSlot writes the uploaded URL into the slot for the document kind.
// Certificates land in certificate_url, everything else in
// application_form_url. An empty URL leaves both slots alone.
func setFileSlot(contract *model.Contract, kind, fileURL string) {
	if fileURL == "" {
		return
	}
	if kind == model.KindCertificate {
		contract.CertificateURL = fileURL
		return
	}
	contract.ApplicationFormURL = fileURL
}
