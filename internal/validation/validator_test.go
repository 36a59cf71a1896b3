// Salada - Device Trust and Fraud Detection Engine
// Copyright 2026 shakilkhan1801
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shakilkhan1801/salada-telegram-airdrop-bots

package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/shakilkhan1801/salada-telegram-airdrop-bots-sub002/internal/models"
)

type testHardware struct {
	ScreenResolution string `json:"screen_resolution" validate:"required,resolution"`
	Concurrency      int    `json:"hardware_concurrency" validate:"gte=0,lte=1024"`
}

type testBundle struct {
	Hardware testHardware `json:"hardware"`
	Hash     string       `json:"hash" validate:"omitempty,devicehash"`
	Platform string       `json:"platform" validate:"max=8"`
}

func TestGetValidator_Singleton(t *testing.T) {
	if GetValidator() != GetValidator() {
		t.Error("GetValidator() should return the same instance")
	}
}

func TestValidateStruct(t *testing.T) {
	validHash := strings.Repeat("ab", 32)

	tests := []struct {
		name      string
		input     testBundle
		wantField string
		wantErr   bool
	}{
		{
			name:  "valid",
			input: testBundle{Hardware: testHardware{ScreenResolution: "1920x1080", Concurrency: 8}, Hash: validHash},
		},
		{
			name:  "resolution with spaces and unicode separator",
			input: testBundle{Hardware: testHardware{ScreenResolution: "1080 × 1920"}},
		},
		{
			name:      "missing resolution",
			input:     testBundle{Hardware: testHardware{}},
			wantErr:   true,
			wantField: "hardware.screen_resolution",
		},
		{
			name:      "malformed resolution",
			input:     testBundle{Hardware: testHardware{ScreenResolution: "big"}},
			wantErr:   true,
			wantField: "hardware.screen_resolution",
		},
		{
			name:      "bad hash",
			input:     testBundle{Hardware: testHardware{ScreenResolution: "800x600"}, Hash: "XYZ"},
			wantErr:   true,
			wantField: "hash",
		},
		{
			name:      "string too long",
			input:     testBundle{Hardware: testHardware{ScreenResolution: "800x600"}, Platform: "a-very-long-platform"},
			wantErr:   true,
			wantField: "platform",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.input)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var ve *models.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected *models.ValidationError, got %T", err)
			}
			if ve.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", ve.Field, tt.wantField)
			}
		})
	}
}

func TestValidateStruct_CollectsAllFields(t *testing.T) {
	err := ValidateStruct(&testBundle{Hardware: testHardware{Concurrency: -1}, Hash: "nope"})

	var ve *models.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *models.ValidationError, got %T", err)
	}
	if len(ve.Details) != 3 {
		t.Errorf("Details = %v, want 3 entries", ve.Details)
	}
}

func TestTranslateMinMaxUnits(t *testing.T) {
	err := ValidateStruct(&testBundle{Hardware: testHardware{ScreenResolution: "1x1"}, Platform: "123456789"})
	if err == nil || !strings.Contains(err.Error(), "at most 8 characters") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestValidateVar(t *testing.T) {
	if err := ValidateVar("ip_address", "10.0.0.1", "ip"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	err := ValidateVar("ip_address", "not-an-ip", "ip")
	if err == nil || !strings.Contains(err.Error(), "ip_address must be a valid IP address") {
		t.Errorf("unexpected error: %v", err)
	}
}
