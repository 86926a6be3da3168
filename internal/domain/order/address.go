package order

// AddressKind distinguishes billing from shipping addresses.
type AddressKind string

const (
	AddressBilling  AddressKind = "B"
	AddressShipping AddressKind = "S"
)

// AddressFields is the value part of an address. Two addresses with equal
// fields are the same address for dedup purposes: checkout reuses an existing
// row when every field matches, identity is irrelevant.
type AddressFields struct {
	FirstName   string
	LastName    string
	Email       string
	Phone       string
	Locality    string
	StreetType  string
	StreetValue string
	Number      string
	Complement  string
}

// Address is a stored delivery or billing location owned by a user.
type Address struct {
	ID     int64
	UserID int64
	Kind   AddressKind
	AddressFields
}

// Choice is a code/name pair for enumerated address and order fields.
type Choice struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Localities are the Bogotá localities accepted in the locality field.
var Localities = []Choice{
	{"USA", "Usaquen"},
	{"CHA", "Chapinero"},
	{"STF", "Santa Fe"},
	{"SCR", "San Cristobal"},
	{"USM", "Usme"},
	{"TUN", "Tunjuelito"},
	{"BOS", "Bosa"},
	{"KEN", "Kennedy"},
	{"FON", "Fontibon"},
	{"ENG", "Engativa"},
	{"SUB", "Suba"},
	{"BAU", "Barrios Unidos"},
	{"TEU", "Teusaquillo"},
	{"MAR", "Los Martires"},
	{"ANT", "Antonio Nariño"},
	{"PUE", "Puente Aranda"},
	{"CAN", "Candelaria"},
	{"RUR", "Rafael Uribe"},
	{"CBO", "Ciudad Bolivar"},
	{"SUM", "Sumapaz"},
}

// StreetTypes are the Colombian street nomenclature codes.
var StreetTypes = []Choice{
	{"CL", "Calle"},
	{"CRA", "Carrera"},
	{"AV", "Avenida"},
	{"ACR", "Avenida Carrera"},
	{"ACL", "Avenida Calle"},
	{"DG", "Diagonal"},
	{"TV", "Transversal"},
	{"AUT", "Autopista"},
	{"VIA", "Via"},
	{"CIR", "Circular"},
	{"CVC", "Circunvalar"},
	{"MZ", "Manzana"},
}

// OrderStatuses enumerates status codes with display names.
var OrderStatuses = []Choice{
	{string(StatusPending), "Pending"},
	{string(StatusAccepted), "Accepted"},
	{string(StatusRejected), "Rejected"},
	{string(StatusDelivered), "Delivered"},
}

// PaymentMethods enumerates method wire values with display names.
var PaymentMethods = []Choice{
	{PaymentCashOnDelivery.Wire(), PaymentCashOnDelivery.Display()},
	{PaymentInStore.Wire(), PaymentInStore.Display()},
	{PaymentPSE.Wire(), PaymentPSE.Display()},
}
