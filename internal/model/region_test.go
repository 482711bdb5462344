package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidFSA(t *testing.T) {
	tests := []struct {
		fsa   string
		valid bool
	}{
		{"V6B", true},
		{"v6b", true},
		{" M5V ", true},
		{"6VB", false},
		{"V66", false},
		{"VB6", false},
		{"", false},
		{"V6B1", false},
		{"V6", false},
	}

	for _, tt := range tests {
		t.Run(tt.fsa, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidFSA(tt.fsa))
		})
	}
}

func TestNormalizeFSA(t *testing.T) {
	assert.Equal(t, "V6B", NormalizeFSA(" v6b "))
	assert.Equal(t, "K1A", NormalizeFSA("K1A"))
}

func TestPriceForWeight(t *testing.T) {
	region := RegionConfig{
		RegionID: "1",
		IsActive: true,
		WeightRanges: []WeightRange{
			{ID: "r1", Min: 0, Max: 11, Price: 10.50, Label: "0-11 KG", IsActive: true},
			{ID: "r2", Min: 11.001, Max: 15, Price: 15.75, Label: "11-15 KG", IsActive: true},
			{ID: "r3", Min: 30.001, Max: 50, Price: 55, Label: "30-50 KG", IsActive: false},
		},
	}

	wr, ok := region.PriceForWeight(12)
	assert.True(t, ok)
	assert.Equal(t, 15.75, wr.Price)

	wr, ok = region.PriceForWeight(5)
	assert.True(t, ok)
	assert.Equal(t, 10.50, wr.Price)

	// 35 only falls in the inactive tier
	_, ok = region.PriceForWeight(35)
	assert.False(t, ok)

	// bounds are inclusive
	wr, ok = region.PriceForWeight(11)
	assert.True(t, ok)
	assert.Equal(t, "r1", wr.ID)
}

func TestHasActivePricing(t *testing.T) {
	region := RegionConfig{
		WeightRanges: []WeightRange{
			{ID: "r1", Price: 0, IsActive: true},
			{ID: "r2", Price: 12, IsActive: false},
		},
	}
	assert.False(t, region.HasActivePricing())

	region.WeightRanges = append(region.WeightRanges, WeightRange{ID: "r3", Price: 9.99, IsActive: true})
	assert.True(t, region.HasActivePricing())
}

func TestContainsFSA(t *testing.T) {
	region := RegionConfig{PostalCodes: []string{"V6A", "V6B"}}
	assert.True(t, region.ContainsFSA("v6a"))
	assert.False(t, region.ContainsFSA("M5V"))
}

func TestValidBackupType(t *testing.T) {
	assert.True(t, ValidBackupType(BackupTypeManual))
	assert.True(t, ValidBackupType(BackupTypeAuto))
	assert.True(t, ValidBackupType(BackupTypeMigration))
	assert.False(t, ValidBackupType("weekly"))
	assert.False(t, ValidBackupType(""))
}

func TestDefaultSystemConfig(t *testing.T) {
	cfg := DefaultSystemConfig()
	assert.Equal(t, ConfigVersion, cfg.Version)
	assert.True(t, cfg.AutoBackupEnabled)
	assert.Equal(t, 30, cfg.AutoBackupInterval)
	assert.Equal(t, 50, cfg.MaxBackupCount)
}
