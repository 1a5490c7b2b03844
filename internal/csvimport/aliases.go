package csvimport

import "strings"

// fieldAliases pairs a canonical field with its known header spellings, in
// normalized form (see NormalizeHeader). Order matters twice over: the table
// is scanned top to bottom in both matching passes, so more specific fields
// sit above the generic ones they could collide with, and within a field the
// most common spellings come first.
//
// The terse two/three-letter entries are AS400 field codes; enterprise fleet
// exports ship legends like "EN - Value" and headers that are just the bare
// code.
var aliasTable = []struct {
	Field   string
	Aliases []string
}{
	{FieldVIN, []string{
		"vin", "vin number", "vehicle identification number", "vehicle id number",
		"serial no", "chassis number", "vn",
	}},
	{FieldTruckNumber, []string{
		"truck number", "truck no", "truck id", "unit number", "unit no", "unit id",
		"unit", "fleet number", "fleet no", "vehicle number", "vehicle no",
		"equipment number", "equipment id", "asset number", "asset id", "un",
	}},
	// engine_hours must precede the engine subsystem fields: "Engine Hours"
	// would otherwise be claimed by an "engine" substring.
	{FieldEngineHours, []string{
		"engine hours", "engine hrs", "eng hours", "eng hrs", "hour meter",
		"hours", "hrs", "eh",
	}},
	{FieldEngineMake, []string{
		"engine make", "engine mfr", "engine manufacturer", "eng make", "en",
	}},
	{FieldEngineModel, []string{
		"engine model", "eng model", "em",
	}},
	{FieldEngineSerial, []string{
		"engine serial", "engine serial number", "eng serial", "esn", "es",
	}},
	{FieldEngineHP, []string{
		"engine hp", "horsepower", "engine horsepower", "rated hp", "hp",
	}},
	{FieldEngineDisplacement, []string{
		"engine displacement", "displacement", "engine size", "ed",
	}},
	{FieldTransmissionMake, []string{
		"transmission make", "transmission mfr", "trans make", "tra", "trn",
	}},
	{FieldTransmissionModel, []string{
		"transmission model", "trans model", "tm",
	}},
	{FieldTransmissionType, []string{
		"transmission type", "trans type", "tt",
	}},
	{FieldTransmissionSpeeds, []string{
		"transmission speeds", "trans speeds", "number of speeds", "speeds", "ts",
	}},
	{FieldAxleConfiguration, []string{
		"axle configuration", "axle config", "axle arrangement", "ax",
	}},
	{FieldFrontAxleCapacity, []string{
		"front axle capacity", "front axle rating", "front gawr", "fa",
	}},
	{FieldRearAxleCapacity, []string{
		"rear axle capacity", "rear axle rating", "rear gawr", "ra",
	}},
	{FieldRearAxleRatio, []string{
		"rear axle ratio", "axle ratio", "rear ratio", "rr",
	}},
	{FieldWheelbase, []string{
		"wheelbase", "wheel base", "wb",
	}},
	{FieldSuspensionType, []string{
		"suspension type", "suspension", "susp", "st",
	}},
	{FieldEmissionSystem, []string{
		"emission system", "emissions system", "emission level", "emissions", "emi",
	}},
	{FieldDEFTankCapacity, []string{
		"def tank capacity", "def capacity", "def tank", "def",
	}},
	{FieldBrakeType, []string{
		"brake type", "brakes", "brake system", "br",
	}},
	{FieldABSSystem, []string{
		"abs system", "abs type", "abs",
	}},
	{FieldFuelType, []string{
		"fuel type", "fuel", "ft",
	}},
	{FieldFuelTankCapacity, []string{
		"fuel tank capacity", "fuel capacity", "tank capacity", "fc",
	}},
	{FieldFuelTankCount, []string{
		"fuel tank count", "number of fuel tanks", "fuel tanks", "tanks",
	}},
	{FieldLastServiceDate, []string{
		"last service date", "last service", "last serviced", "last pm date", "ls",
	}},
	{FieldNextServiceDue, []string{
		"next service due", "next service", "next pm due", "next pm", "ns",
	}},
	{FieldTireSize, []string{
		"tire size", "tyre size", "tires", "tyres", "tr",
	}},
	// body_type must precede the body subsystem fields for the same reason as
	// engine_hours.
	{FieldBodyType, []string{
		"body type", "body style", "bt",
	}},
	{FieldBodyMake, []string{
		"body make", "body mfr", "body manufacturer", "bm",
	}},
	{FieldBodyLength, []string{
		"body length", "box length", "bl",
	}},
	{FieldDoorType, []string{
		"door type", "rear door", "door style", "dt",
	}},
	{FieldLiftgateMake, []string{
		"liftgate make", "lift gate make", "liftgate mfr", "lg",
	}},
	{FieldLiftgateModel, []string{
		"liftgate model", "lift gate model", "lgm",
	}},
	{FieldLiftgateCap, []string{
		"liftgate capacity", "lift gate capacity", "liftgate rating", "lgc",
	}},
	{FieldAPUMake, []string{
		"apu make", "apu mfr", "apu",
	}},
	{FieldAPUModel, []string{
		"apu model", "apm",
	}},
	{FieldReeferMake, []string{
		"reefer make", "reefer mfr", "refrigeration make", "reefer unit", "rf",
	}},
	{FieldReeferModel, []string{
		"reefer model", "refrigeration model", "rfm",
	}},
	{FieldReeferHours, []string{
		"reefer hours", "reefer hrs", "rfh",
	}},
	{FieldMake, []string{
		"make", "manufacturer", "mfr", "brand", "mk",
	}},
	{FieldModel, []string{
		"model", "model name", "md",
	}},
	{FieldYear, []string{
		"year", "model year", "yr",
	}},
	{FieldCustomerNumber, []string{
		"customer number", "customer no", "customer id", "customer code",
		"account number", "account no", "cust no", "cust number", "cn",
	}},
	{FieldCustomerName, []string{
		"customer name", "customer", "account name", "client name", "client",
		"company name", "cust name", "cu",
	}},
	{FieldCustomerCity, []string{
		"customer city", "cust city", "city",
	}},
	{FieldCustomerState, []string{
		"customer state", "cust state", "state", "province",
	}},
	{FieldOdometer, []string{
		"odometer", "odometer reading", "mileage", "miles", "current mileage", "odo",
	}},
	{FieldLicensePlate, []string{
		"license plate", "license plate number", "plate number", "plate", "tag number",
		"registration number", "lic", "lp",
	}},
	{FieldInServiceDate, []string{
		"in service date", "in service", "date in service", "service date",
		"delivery date", "isd",
	}},
	{FieldLocationCode, []string{
		"location code", "location", "branch", "terminal", "domicile", "loc",
	}},
	{FieldFleetAssignment, []string{
		"fleet assignment", "fleet", "fleet code", "division", "fl",
	}},
	{FieldVehicleClass, []string{
		"vehicle class", "class", "weight class", "gvw class", "vc",
	}},
	{FieldGVWR, []string{
		"gvwr", "gross vehicle weight rating", "gross vehicle weight", "gvw",
	}},
	{FieldColor, []string{
		"color", "colour", "paint color", "cl",
	}},
}

// MapColumnToField resolves a raw header to a canonical field name, or ""
// when the column is not recognized (unknown columns are ignored downstream
// rather than guessed at).
//
// Two passes, first match wins. Pass one requires the normalized header to
// equal an alias exactly, so a short code like "en" can never be hijacked by a
// longer alias that happens to contain it. Pass two splits the header into
// tokens: aliases of three characters or fewer must appear as a whole token
// ("bl" must not match inside "table"), longer aliases match by substring
// containment in either direction.
func MapColumnToField(header string) string {
	normalized := NormalizeHeader(header)
	if normalized == "" {
		return ""
	}

	for _, entry := range aliasTable {
		for _, alias := range entry.Aliases {
			if normalized == alias {
				return entry.Field
			}
		}
	}

	tokens := strings.Fields(normalized)
	tokenSet := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		tokenSet[token] = struct{}{}
	}

	for _, entry := range aliasTable {
		for _, alias := range entry.Aliases {
			if len(alias) <= 3 {
				if _, ok := tokenSet[alias]; ok {
					return entry.Field
				}
				continue
			}
			if strings.Contains(normalized, alias) || strings.Contains(alias, normalized) {
				return entry.Field
			}
		}
	}
	return ""
}
