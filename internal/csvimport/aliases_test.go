package csvimport

import "testing"

func TestNormalizeHeader(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"  VIN  ", "vin"},
		{"Unit_Number", "unit number"},
		{"Unit-Number", "unit number"},
		{"Unit #", "unit"},
		{`"Customer Name"`, "customer name"},
		{"Engine   Hours", "engine hours"},
		{"Modèle", "modele"},
		{"no.of.tanks", "no of tanks"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizeHeader(tc.in); got != tc.want {
			t.Errorf("NormalizeHeader(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMapColumnToFieldExactMatches(t *testing.T) {
	cases := []struct {
		header string
		want   string
	}{
		{"VIN", FieldVIN},
		{"VIN Number", FieldVIN},
		{"Vehicle Identification Number", FieldVIN},
		{"Unit Number", FieldTruckNumber},
		{"Truck #", FieldTruckNumber},
		{"Make", FieldMake},
		{"Model", FieldModel},
		{"Year", FieldYear},
		{"Mileage", FieldOdometer},
		{"Engine Hours", FieldEngineHours},
		{"Customer", FieldCustomerName},
		{"Customer Number", FieldCustomerNumber},
		{"License Plate", FieldLicensePlate},
		{"GVWR", FieldGVWR},
	}
	for _, tc := range cases {
		if got := MapColumnToField(tc.header); got != tc.want {
			t.Errorf("MapColumnToField(%q) = %q, want %q", tc.header, got, tc.want)
		}
	}
}

func TestMapColumnToFieldAS400Codes(t *testing.T) {
	cases := []struct {
		header string
		want   string
	}{
		{"EN", FieldEngineMake},
		{"EM", FieldEngineModel},
		{"TRA", FieldTransmissionMake},
		{"WB", FieldWheelbase},
		{"BL", FieldBodyLength},
		{"LG", FieldLiftgateMake},
	}
	for _, tc := range cases {
		if got := MapColumnToField(tc.header); got != tc.want {
			t.Errorf("MapColumnToField(%q) = %q, want %q", tc.header, got, tc.want)
		}
	}
}

// Short codes must only match whole tokens, never substrings of unrelated
// words.
func TestMapColumnToFieldShortAliasTokenGate(t *testing.T) {
	for _, header := range []string{"Table", "Cabinet", "Blister"} {
		if got := MapColumnToField(header); got != "" {
			t.Errorf("MapColumnToField(%q) = %q, want no match", header, got)
		}
	}
}

// "Engine Hours" contains both the engine_hours aliases and the bare word
// "engine"; table order must let the hours field win.
func TestMapColumnToFieldEngineHoursBeforeEngineMake(t *testing.T) {
	if got := MapColumnToField("Engine Hrs"); got != FieldEngineHours {
		t.Fatalf("expected engine_hours, got %q", got)
	}
	if got := MapColumnToField("Body Type"); got != FieldBodyType {
		t.Fatalf("expected body_type, got %q", got)
	}
}

func TestMapColumnToFieldSubstringBothDirections(t *testing.T) {
	// Header longer than alias.
	if got := MapColumnToField("Current Odometer Reading (mi)"); got != FieldOdometer {
		t.Fatalf("expected odometer, got %q", got)
	}
	// Header shorter than alias.
	if got := MapColumnToField("Modele"); got != FieldModel {
		t.Fatalf("expected model, got %q", got)
	}
}

func TestMapColumnToFieldUnknownHeader(t *testing.T) {
	if got := MapColumnToField("Completely Unrelated Column"); got != "" {
		t.Fatalf("expected no match, got %q", got)
	}
}
