package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutcomeRecord(t *testing.T) {
	var o Outcome
	o.record(OrderSucceeded)
	o.record(OrderErrored)
	o.record(OrderSkipped)
	o.record(OrderSucceeded)

	assert.Equal(t, 4, o.Processed)
	assert.Equal(t, 2, o.Succeeded)
	assert.Equal(t, 1, o.Errored)
	assert.Equal(t, 1, o.Skipped)
	assert.Equal(t, o.Processed, o.Succeeded+o.Errored+o.Skipped)
	assert.True(t, o.HasErrors())
}

func TestOutcomeSummary(t *testing.T) {
	o := Outcome{Processed: 5, Succeeded: 3, Errored: 1, Skipped: 1}
	assert.Equal(t, "Procesados: 5 | Exitosos: 3 | Errores: 1 | Omitidos: 1", o.Summary())
	assert.True(t, o.HasErrors())

	clean := Outcome{Processed: 2, Succeeded: 2}
	assert.False(t, clean.HasErrors())
}
