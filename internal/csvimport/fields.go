package csvimport

// vinLength is the only valid length for a North American VIN.
const vinLength = 17

// Canonical field names produced by the column mapper. Everything downstream
// (transform, validation, upsert) is keyed by these.
const (
	FieldVIN             = "vin"
	FieldTruckNumber     = "truck_number"
	FieldMake            = "make"
	FieldModel           = "model"
	FieldYear            = "year"
	FieldCustomerName    = "customer_name"
	FieldCustomerNumber  = "customer_number"
	FieldCustomerCity    = "customer_city"
	FieldCustomerState   = "customer_state"
	FieldOdometer        = "odometer"
	FieldEngineHours     = "engine_hours"
	FieldLicensePlate    = "license_plate"
	FieldInServiceDate   = "in_service_date"
	FieldLocationCode    = "location_code"
	FieldFleetAssignment = "fleet_assignment"
	FieldVehicleClass    = "vehicle_class"
	FieldBodyType        = "body_type"
	FieldGVWR            = "gvwr"
	FieldColor           = "color"
)

// Subsystem sub-fields. Stored as nested objects on the truck record; the key
// inside the object is the part after the subsystem prefix.
const (
	FieldEngineMake         = "engine_make"
	FieldEngineModel        = "engine_model"
	FieldEngineSerial       = "engine_serial"
	FieldEngineHP           = "engine_hp"
	FieldEngineDisplacement = "engine_displacement"

	FieldTransmissionMake   = "transmission_make"
	FieldTransmissionModel  = "transmission_model"
	FieldTransmissionType   = "transmission_type"
	FieldTransmissionSpeeds = "transmission_speeds"

	FieldAxleConfiguration = "axle_configuration"
	FieldFrontAxleCapacity = "front_axle_capacity"
	FieldRearAxleCapacity  = "rear_axle_capacity"
	FieldRearAxleRatio     = "rear_axle_ratio"
	FieldWheelbase         = "wheelbase"
	FieldSuspensionType    = "suspension_type"

	FieldEmissionSystem  = "emission_system"
	FieldDEFTankCapacity = "def_tank_capacity"

	FieldBrakeType = "brake_type"
	FieldABSSystem = "abs_system"

	FieldFuelType         = "fuel_type"
	FieldFuelTankCapacity = "fuel_tank_capacity"
	FieldFuelTankCount    = "fuel_tank_count"

	FieldLastServiceDate = "last_service_date"
	FieldNextServiceDue  = "next_service_due"
	FieldTireSize        = "tire_size"

	FieldBodyMake        = "body_make"
	FieldBodyLength      = "body_length"
	FieldDoorType        = "door_type"
	FieldLiftgateMake    = "liftgate_make"
	FieldLiftgateModel   = "liftgate_model"
	FieldLiftgateCap     = "liftgate_capacity"
	FieldAPUMake         = "apu_make"
	FieldAPUModel        = "apu_model"
	FieldReeferMake      = "reefer_make"
	FieldReeferModel     = "reefer_model"
	FieldReeferHours     = "reefer_hours"
)

// Subsystem names matching the jsonb columns on the trucks table.
const (
	SubsystemEngine       = "engine"
	SubsystemTransmission = "transmission"
	SubsystemDrivetrain   = "drivetrain"
	SubsystemEmissions    = "emissions"
	SubsystemBraking      = "braking"
	SubsystemFuelSystem   = "fuel_system"
	SubsystemMaintenance  = "maintenance"
	SubsystemBody         = "body"
)

type subsystemKey struct {
	Subsystem string
	Key       string
}

// subsystemFields routes canonical sub-fields into their nested object. Fields
// not listed here are scalar columns on the truck row.
var subsystemFields = map[string]subsystemKey{
	FieldEngineMake:         {SubsystemEngine, "make"},
	FieldEngineModel:        {SubsystemEngine, "model"},
	FieldEngineSerial:       {SubsystemEngine, "serial"},
	FieldEngineHP:           {SubsystemEngine, "horsepower"},
	FieldEngineDisplacement: {SubsystemEngine, "displacement"},

	FieldTransmissionMake:   {SubsystemTransmission, "make"},
	FieldTransmissionModel:  {SubsystemTransmission, "model"},
	FieldTransmissionType:   {SubsystemTransmission, "type"},
	FieldTransmissionSpeeds: {SubsystemTransmission, "speeds"},

	FieldAxleConfiguration: {SubsystemDrivetrain, "axle_configuration"},
	FieldFrontAxleCapacity: {SubsystemDrivetrain, "front_axle_capacity"},
	FieldRearAxleCapacity:  {SubsystemDrivetrain, "rear_axle_capacity"},
	FieldRearAxleRatio:     {SubsystemDrivetrain, "rear_axle_ratio"},
	FieldWheelbase:         {SubsystemDrivetrain, "wheelbase"},
	FieldSuspensionType:    {SubsystemDrivetrain, "suspension_type"},

	FieldEmissionSystem:  {SubsystemEmissions, "system"},
	FieldDEFTankCapacity: {SubsystemEmissions, "def_tank_capacity"},

	FieldBrakeType: {SubsystemBraking, "brake_type"},
	FieldABSSystem: {SubsystemBraking, "abs_system"},

	FieldFuelType:         {SubsystemFuelSystem, "fuel_type"},
	FieldFuelTankCapacity: {SubsystemFuelSystem, "tank_capacity"},
	FieldFuelTankCount:    {SubsystemFuelSystem, "tank_count"},

	FieldLastServiceDate: {SubsystemMaintenance, "last_service_date"},
	FieldNextServiceDue:  {SubsystemMaintenance, "next_service_due"},
	FieldTireSize:        {SubsystemMaintenance, "tire_size"},

	FieldBodyMake:      {SubsystemBody, "make"},
	FieldBodyLength:    {SubsystemBody, "length"},
	FieldDoorType:      {SubsystemBody, "door_type"},
	FieldLiftgateMake:  {SubsystemBody, "liftgate_make"},
	FieldLiftgateModel: {SubsystemBody, "liftgate_model"},
	FieldLiftgateCap:   {SubsystemBody, "liftgate_capacity"},
	FieldAPUMake:       {SubsystemBody, "apu_make"},
	FieldAPUModel:      {SubsystemBody, "apu_model"},
	FieldReeferMake:    {SubsystemBody, "reefer_make"},
	FieldReeferModel:   {SubsystemBody, "reefer_model"},
	FieldReeferHours:   {SubsystemBody, "reefer_hours"},
}
