package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_WorkedExample(t *testing.T) {
	in := "The system must have 99.9% uptime by 2024-01-01."
	out := Normalize(in)
	assert.Equal(t, "system must NUM% uptime by DATE", out)
}

func TestNormalize_ModalCollapsing(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"needs to", "Supplier needs to provide support", "supplier must provide support"},
		{"has to", "Vendor has to certify staff", "vendor must certify staff"},
		{"required to", "Contractor is required to report monthly", "contractor is must report monthly"},
		{"should have", "System should have redundancy", "system should redundancy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalize_Dates(t *testing.T) {
	assert.Equal(t, "delivery by DATE", Normalize("Delivery by 2025-06-30."))
	assert.Equal(t, "delivery by DATE", Normalize("Delivery by 30/06/2025."))
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"The system must have 99.9% uptime by 2024-01-01.",
		"A vendor needs to supply 12 units.",
		"Project completed on 01/02/23 with an NPS of 72.",
		"",
		"   already   plain   text   ",
	}

	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		assert.Equal(t, once, twice, "normalization of %q is not idempotent", in)
	}
}

func TestNormalize_ArticlesRemoved(t *testing.T) {
	out := Normalize("The supplier provides an invoice and a receipt")
	assert.Equal(t, "supplier provides invoice and receipt", out)
}
