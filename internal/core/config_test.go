package core

import (
	"testing"
)

func TestConfig_DatabaseURL(t *testing.T) {
	cfg := &Config{
		Database: struct {
			Engine   string `mapstructure:"engine"`
			Filename string `mapstructure:"filename"`
			Host     string `mapstructure:"host"`
			Port     int    `mapstructure:"port"`
			Name     string `mapstructure:"name"`
			Username string `mapstructure:"username"`
			Password string `mapstructure:"password"`
			SSLMode  string `mapstructure:"sslmode"`
		}{
			Engine:   "postgres",
			Host:     "localhost",
			Port:     5432,
			Name:     "testdb",
			Username: "testuser",
			Password: "testpassword",
			SSLMode:  "disable",
		},
	}

	url := cfg.DatabaseURL()
	expected := "host=localhost port=5432 dbname=testdb user=testuser password=testpassword sslmode=disable"
	if url != expected {
		t.Errorf("DatabaseURL() want = %s, got = %s", expected, url)
	}
}

func TestConfig_Threshold(t *testing.T) {
	type args struct {
		threshold int
	}
	tests := []struct {
		name     string
		args     args
		wantNil  bool
		wantSize int
	}{
		{
			name:    "negative threshold disables compression",
			args:    args{threshold: -1},
			wantNil: true,
		},
		{
			name:     "zero threshold compresses everything",
			args:     args{threshold: 0},
			wantSize: 0,
		},
		{
			name:     "positive threshold",
			args:     args{threshold: 256},
			wantSize: 256,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{CompressionThreshold: tt.args.threshold}
			got := cfg.Threshold()

			if tt.wantNil {
				if got != nil {
					t.Errorf("Threshold() = %d, want nil", *got)
				}
				return
			}
			if got == nil {
				t.Fatal("Threshold() = nil, want a value")
			}
			if *got != tt.wantSize {
				t.Errorf("Threshold() = %d, want %d", *got, tt.wantSize)
			}
		})
	}
}
