package csvimport

// TruckTemplateCSV is the downloadable starting point for bulk uploads. The
// headers use the canonical names, but the matcher accepts the common
// fleet-software variants too, so customers can also upload exports as-is.
const TruckTemplateCSV = "vin,truck_number,year,make,model,customer_name,customer_number,odometer,engine_hours,license_plate,in_service_date,location_code,fleet_assignment,vehicle_class,body_type,gvwr,color,engine_make,engine_model,transmission_make,transmission_type,fuel_type\n" +
	"1FUJGLDR2CLBP8834,TRK-101,2019,Freightliner,Cascadia,Acme Logistics,ACME01,412388,12045.5,TX-88412,2019-06-15,DAL,Linehaul,8,Sleeper,80000,White,Detroit,DD15,Eaton,Automated Manual,Diesel\n" +
	"3AKJHHDR9JSJV5527,TRK-102,2021,Kenworth,T680,Acme Logistics,ACME01,198220,6310,TX-90155,2021-02-01,DAL,Regional,8,Day Cab,80000,Red,PACCAR,MX-13,PACCAR,Automated Manual,Diesel\n"
