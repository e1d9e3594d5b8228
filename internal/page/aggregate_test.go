package page

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	primaryErr := errors.New("Category not found")
	bannerErr := errors.New("Failed to fetch banner image")
	listErr := errors.New("Failed to fetch subcategories")

	tests := []struct {
		name                        string
		mounted                     bool
		primary, main, mobile, list Gate
		wantStatus                  Status
		wantErr                     error
		wantPageLoading             bool
	}{
		{
			name:       "nothing mounted",
			wantStatus: StatusInitial,
		},
		{
			name:            "primary loading",
			mounted:         true,
			primary:         Gate{Loading: true},
			wantStatus:      StatusLoading,
			wantPageLoading: true,
		},
		{
			name:       "only list loading",
			mounted:    true,
			list:       Gate{Loading: true},
			wantStatus: StatusLoading,
		},
		{
			name:       "all settled",
			mounted:    true,
			wantStatus: StatusSuccess,
		},
		{
			name:       "list error is partial",
			mounted:    true,
			list:       Gate{Err: listErr},
			wantStatus: StatusPartialError,
		},
		{
			name:       "mobile banner error is fatal despite list success",
			mounted:    true,
			mobile:     Gate{Err: bannerErr},
			wantStatus: StatusFatalError,
			wantErr:    bannerErr,
		},
		{
			name:            "banner error is fatal while the other banner loads",
			mounted:         true,
			main:            Gate{Err: bannerErr},
			mobile:          Gate{Loading: true},
			wantStatus:      StatusFatalError,
			wantErr:         bannerErr,
			wantPageLoading: true,
		},
		{
			name:       "primary error wins over banner and list errors",
			mounted:    true,
			primary:    Gate{Err: primaryErr},
			main:       Gate{Err: bannerErr},
			list:       Gate{Err: listErr},
			wantStatus: StatusFatalError,
			wantErr:    primaryErr,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out := Resolve(tc.mounted, tc.primary, tc.main, tc.mobile, tc.list)
			assert.Equal(t, tc.wantStatus, out.Status)
			assert.Equal(t, tc.wantErr, out.Err)
			assert.Equal(t, tc.wantPageLoading, out.PageLoading)
		})
	}
}

func TestStatusText(t *testing.T) {
	text, err := StatusPartialError.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "PARTIAL_ERROR", string(text))
	assert.True(t, StatusFatalError.Settled())
	assert.False(t, StatusLoading.Settled())
	assert.False(t, StatusInitial.Settled())

	var parsed Status
	assert.NoError(t, parsed.UnmarshalText([]byte("FATAL_ERROR")))
	assert.Equal(t, StatusFatalError, parsed)
	assert.Error(t, parsed.UnmarshalText([]byte("DONE")))
}
