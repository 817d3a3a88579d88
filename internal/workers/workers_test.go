package workers

import (
	"runtime"
	"testing"
)

func TestCount(t *testing.T) {
	t.Setenv(EnvOverride, "")

	availableCPU := runtime.GOMAXPROCS(0)

	tests := []struct {
		name       string
		multiplier float64
		limit      int
		minExpect  int
		maxExpect  int
	}{
		{
			name:       "CPU-bound task (1.0x multiplier)",
			multiplier: 1.0,
			limit:      0,
			minExpect:  1,
			maxExpect:  availableCPU,
		},
		{
			name:       "Process-bound task (0.5x multiplier)",
			multiplier: 0.5,
			limit:      0,
			minExpect:  1,
			maxExpect:  maxInt(1, availableCPU/2),
		},
		{
			name:       "With limit lower than calculated",
			multiplier: 2.0,
			limit:      2,
			minExpect:  1,
			maxExpect:  2,
		},
		{
			name:       "Very low multiplier",
			multiplier: 0.1,
			limit:      0,
			minExpect:  1,
			maxExpect:  maxInt(1, int(float64(availableCPU)*0.1)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Count(tt.multiplier, tt.limit)

			if got < tt.minExpect {
				t.Errorf("Count(%v, %d) = %d, expected >= %d", tt.multiplier, tt.limit, got, tt.minExpect)
			}

			if got > tt.maxExpect {
				t.Errorf("Count(%v, %d) = %d, expected <= %d", tt.multiplier, tt.limit, got, tt.maxExpect)
			}
		})
	}
}

func TestCountWithEnvOverride(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		limit    int
		expected int // -1 means the CPU calculation is used
	}{
		{name: "Valid override", envValue: "8", limit: 0, expected: 8},
		{name: "Override with limit", envValue: "20", limit: 10, expected: 10},
		{name: "Override below limit", envValue: "5", limit: 10, expected: 5},
		{name: "Invalid override (non-numeric)", envValue: "invalid", limit: 0, expected: -1},
		{name: "Invalid override (zero)", envValue: "0", limit: 0, expected: -1},
		{name: "Invalid override (negative)", envValue: "-5", limit: 0, expected: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvOverride, tt.envValue)

			got := Count(1.0, tt.limit)

			if tt.expected < 0 {
				if got != runtime.GOMAXPROCS(0) {
					t.Errorf("Count(1.0, 0) with %s=%s = %d, want CPU count %d", EnvOverride, tt.envValue, got, runtime.GOMAXPROCS(0))
				}
				return
			}
			if got != tt.expected {
				t.Errorf("Count(1.0, %d) with %s=%s = %d, want %d", tt.limit, EnvOverride, tt.envValue, got, tt.expected)
			}
		})
	}
}

func TestForExport(t *testing.T) {
	tests := []struct {
		name       string
		envValue   string
		configured int
		wantMin    int
		wantMax    int
	}{
		{name: "Default", configured: 0, wantMin: 1, wantMax: 4},
		{name: "Configured", configured: 6, wantMin: 6, wantMax: 6},
		{name: "Env beats configured", envValue: "3", configured: 6, wantMin: 3, wantMax: 3},
		{name: "Invalid env ignored", envValue: "many", configured: 2, wantMin: 2, wantMax: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvOverride, tt.envValue)

			got := ForExport(tt.configured)
			if got < tt.wantMin || got > tt.wantMax {
				t.Errorf("ForExport(%d) = %d, want between %d and %d", tt.configured, got, tt.wantMin, tt.wantMax)
			}
		})
	}
}

func TestCountBoundaries(t *testing.T) {
	t.Setenv(EnvOverride, "")

	tests := []struct {
		name       string
		multiplier float64
		limit      int
	}{
		{"Zero multiplier", 0.0, 0},
		{"Negative multiplier", -1.0, 0},
		{"Very high multiplier", 100.0, 0},
		{"Very high limit", 1.0, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Count(tt.multiplier, tt.limit)

			if got < 1 {
				t.Errorf("Count(%v, %d) = %d, should never be less than 1", tt.multiplier, tt.limit, got)
			}

			if tt.limit > 0 && got > tt.limit {
				t.Errorf("Count(%v, %d) = %d, should not exceed limit", tt.multiplier, tt.limit, got)
			}
		})
	}
}

func BenchmarkCount(b *testing.B) {
	b.Run("No override", func(b *testing.B) {
		b.Setenv(EnvOverride, "")
		for i := 0; i < b.N; i++ {
			_ = Count(1.5, 10)
		}
	})

	b.Run("With override", func(b *testing.B) {
		b.Setenv(EnvOverride, "8")
		for i := 0; i < b.N; i++ {
			_ = Count(1.5, 10)
		}
	})
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
