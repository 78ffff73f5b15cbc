package metrics

import (
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("org_id", "42"),
		attribute.String("customer_email", "private@example.com"),
		attribute.String("payment_method", "cash"),
	)

	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	for _, attr := range attrs {
		if attr.Key == "customer_email" {
			t.Fatal("customer_email should have been filtered")
		}
	}
}
