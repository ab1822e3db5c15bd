package models

// ConnectorType is the physical plug standard of a charging point.
type ConnectorType string

// Connector types known to the charging network.
const (
	ConnectorCCS2         ConnectorType = "CCS2"
	ConnectorCHAdeMO      ConnectorType = "CHAdeMO"
	ConnectorType2Compact ConnectorType = "Type2"
	ConnectorCaravanMains ConnectorType = "Caravan Mains Socket"
	ConnectorCCS1         ConnectorType = "CCS1"
	ConnectorJ1772        ConnectorType = "J-1772"
	ConnectorThreePhaseEU ConnectorType = "Three Phase EU"
	ConnectorType2        ConnectorType = "Type 2"
	ConnectorType3        ConnectorType = "Type 3"
	ConnectorType3A       ConnectorType = "Type 3A"
	ConnectorWallEuro     ConnectorType = "Wall (Euro)"
)

// ConnectorTypes lists every connector type accepted by the filter predicate.
var ConnectorTypes = []ConnectorType{
	ConnectorCCS2,
	ConnectorCHAdeMO,
	ConnectorType2Compact,
	ConnectorCaravanMains,
	ConnectorCCS1,
	ConnectorJ1772,
	ConnectorThreePhaseEU,
	ConnectorType2,
	ConnectorType3,
	ConnectorType3A,
	ConnectorWallEuro,
}

// ValidConnectorType reports whether t is a known connector type.
func ValidConnectorType(t ConnectorType) bool {
	for _, known := range ConnectorTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Point is an individual charging outlet, the unit of reservation. Status is
// authoritative from the remote service and never derived client-side.
// ReservationEndTime is only set while the point is reserved or charging under
// a reservation; it is carried opaque since the backend does not document its
// timestamp format.
type Point struct {
	PointID            int64         `json:"pointid"`
	ConnectorType      ConnectorType `json:"connector_type"`
	CapKW              float64       `json:"cap"`
	Status             Status        `json:"status"`
	KWhPrice           float64       `json:"kwhprice"`
	FastCharger        bool          `json:"fast_charger"`
	ReservationEndTime *string       `json:"reservationendtime"`
}

// Available reports whether the point can be reserved right now.
func (p Point) Available() bool {
	return p.Status == StatusAvailable
}
