package model

import (
	"testing"
)

func TestContractStatusConstants(t *testing.T) {
	if ContractStatusActive != "active" {
		t.Errorf("Expected 'active', got '%s'", ContractStatusActive)
	}
}

func TestDocumentKindConstants(t *testing.T) {
	kinds := []string{KindApplication, KindCertificate}
	expected := []string{"application", "certificate"}

	for i, kind := range kinds {
		if kind != expected[i] {
			t.Errorf("Expected '%s', got '%s'", expected[i], kind)
		}
	}
}
