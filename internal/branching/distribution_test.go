package branching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/styvesb/probsim/internal/errors"
)

func TestDistributionValidate(t *testing.T) {
	tests := []struct {
		name    string
		dist    Distribution
		wantErr bool
	}{
		{"subcritical", Distribution{0.5, 0.25, 0.25}, false},
		{"critical thirds", Distribution{1.0 / 3, 1.0 / 3, 1.0 / 3}, false},
		{"point mass", Distribution{1}, false},
		{"within tolerance", Distribution{0.5, 0.5 + 1e-12}, false},
		{"empty", Distribution{}, true},
		{"nil", nil, true},
		{"negative probability", Distribution{0.5, -0.1, 0.6}, true},
		{"sums below one", Distribution{0.4, 0.4}, true},
		{"sums above one", Distribution{0.7, 0.7}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.dist.Validate()
			if tt.wantErr {
				assert.True(t, apperrors.IsParameterError(err), "err = %v, want ParameterError", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDistributionCDF(t *testing.T) {
	d := Distribution{0.5, 0.25, 0.25}
	cdf := d.CDF()

	require.Len(t, cdf, 3)
	assert.InDelta(t, 0.5, cdf[0], 1e-12)
	assert.InDelta(t, 0.75, cdf[1], 1e-12)
	assert.InDelta(t, 1.0, cdf[2], 1e-12)
}

func TestDistributionMean(t *testing.T) {
	assert.InDelta(t, 0.75, Distribution{0.5, 0.25, 0.25}.Mean(), 1e-12)
	assert.InDelta(t, 1.25, Distribution{0.25, 0.25, 0.5}.Mean(), 1e-12)
	assert.InDelta(t, 1.0, Distribution{1.0 / 3, 1.0 / 3, 1.0 / 3}.Mean(), 1e-12)
}

func TestParse(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		d, err := Parse("0.5, 0.25, 0.25")
		require.NoError(t, err)
		assert.Equal(t, Distribution{0.5, 0.25, 0.25}, d)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := Parse("0.5,x,0.25")
		assert.True(t, apperrors.IsParameterError(err), "err = %v", err)
	})

	t.Run("does not sum to one", func(t *testing.T) {
		_, err := Parse("0.5,0.25")
		assert.True(t, apperrors.IsParameterError(err), "err = %v", err)
	})
}
