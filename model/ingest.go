package model

// ExtractedDocument is the structured payload returned by the
// document-understanding service for one file.
type ExtractedDocument struct {
	DocumentKind  string  `json:"document_kind"` // application or certificate
	ChassisNo     string  `json:"chassis_no"`
	PlateNo       string  `json:"plate_no"`
	Brand         string  `json:"brand"`
	Insurer       string  `json:"insurer"`
	PolicyNo      string  `json:"policy_no"`
	StartDate     string  `json:"start_date"`
	EndDate       string  `json:"end_date"`
	PremiumAmount float64 `json:"premium_amount"`
	TaxAmount     float64 `json:"tax_amount"`
	TotalAmount   float64 `json:"total_amount"`
	Coverage      string  `json:"coverage"`
	Installments  string  `json:"installments"`
}

// StagedDocument tracks one input file as it moves through the pipeline
type StagedDocument struct {
	Filename     string             `json:"filename"`
	MimeType     string             `json:"mime_type"`
	Kind         string             `json:"kind"`
	RawID        string             `json:"raw_id"`
	NormalizedID string             `json:"normalized_id"`
	FileURL      string             `json:"file_url"`
	Payload      *ExtractedDocument `json:"payload,omitempty"`
}

// FailedMatchItem is a document the pipeline could not place automatically,
// queued for interactive resolution.
type FailedMatchItem struct {
	Filename   string             `json:"filename"`
	DetectedID string             `json:"detected_id"`
	Kind       string             `json:"kind"`
	FileURL    string             `json:"file_url"`
	Payload    *ExtractedDocument `json:"payload,omitempty"`
	Reason     string             `json:"reason"`
}

// BatchResult is the outcome of one ingestion batch. It is built up by the
// orchestrator and returned by value; nothing else mutates it.
type BatchResult struct {
	Processed int               `json:"processed"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Skipped   int               `json:"skipped"`
	Log       []string          `json:"log"`
	Unmatched []FailedMatchItem `json:"unmatched,omitempty"`
}
