package econ

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestRound2(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{1.006, 1.01},
		{1.004, 1.0},
		{-2.678, -2.68},
		{0, 0},
		{199.999, 200},
		{323.5111, 323.51},
	}
	for _, tc := range tests {
		if got := Round2(tc.in); got != tc.want {
			t.Errorf("Round2(%f) = %f, want %f", tc.in, got, tc.want)
		}
	}
}

func TestRound4(t *testing.T) {
	if got := Round4(0.123456); got != 0.1235 {
		t.Fatalf("Round4 = %f", got)
	}
	if got := Round4(-0.08127); got != -0.0813 {
		t.Fatalf("Round4 = %f", got)
	}
}

func TestClampRate(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0.01, MortgageRateFloor},
		{MortgageRateFloor, MortgageRateFloor},
		{0.045, 0.045},
		{MortgageRateCeil, MortgageRateCeil},
		{0.09, MortgageRateCeil},
	}
	for _, tc := range tests {
		if got := ClampRate(tc.in); got != tc.want {
			t.Errorf("ClampRate(%f) = %f, want %f", tc.in, got, tc.want)
		}
	}
}

func TestSQLStateClassifiers(t *testing.T) {
	serialization := &pgconn.PgError{Code: "40001"}
	unique := &pgconn.PgError{Code: "23505"}

	if !IsSerializationError(serialization) {
		t.Fatal("40001 not recognized as serialization failure")
	}
	if IsSerializationError(unique) {
		t.Fatal("23505 misread as serialization failure")
	}
	if !IsUniqueViolation(unique) {
		t.Fatal("23505 not recognized as unique violation")
	}
	if IsUniqueViolation(serialization) {
		t.Fatal("40001 misread as unique violation")
	}

	wrapped := fmt.Errorf("insert holding: %w", unique)
	if !IsUniqueViolation(wrapped) {
		t.Fatal("wrapped unique violation not recognized")
	}
	if IsSerializationError(fmt.Errorf("plain failure")) {
		t.Fatal("arbitrary error misread as serialization failure")
	}
}
