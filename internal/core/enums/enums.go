// Package enums holds the enumerated column values shared by every domain
// package. They mirror the enum types created in db/migrations.
package enums

type AssetStatus string

const (
	AssetPlanned     AssetStatus = "planned"
	AssetOrdered     AssetStatus = "ordered"
	AssetInUse       AssetStatus = "in_use"
	AssetSpare       AssetStatus = "spare"
	AssetUnderRepair AssetStatus = "under_repair"
	AssetQuarantined AssetStatus = "quarantined"
	AssetRetired     AssetStatus = "retired"
	AssetDisposed    AssetStatus = "disposed"
)

var AssetStatuses = []AssetStatus{
	AssetPlanned, AssetOrdered, AssetInUse, AssetSpare,
	AssetUnderRepair, AssetQuarantined, AssetRetired, AssetDisposed,
}

// AssignableAssetStatuses are the statuses from which an asset may be handed out.
var AssignableAssetStatuses = []AssetStatus{AssetSpare, AssetOrdered}

// GuardedAssetStatuses cannot be entered while the asset is held by someone.
var GuardedAssetStatuses = []AssetStatus{AssetRetired, AssetDisposed, AssetQuarantined}

// StatusesAfterClose are the statuses an asset may take when its assignment closes.
var StatusesAfterClose = []AssetStatus{AssetSpare, AssetUnderRepair, AssetQuarantined, AssetRetired}

func (s AssetStatus) In(set []AssetStatus) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

type AssignmentStatus string

const (
	AssignmentPendingAcceptance AssignmentStatus = "pending_acceptance"
	AssignmentActive            AssignmentStatus = "active"
	AssignmentPendingReturn     AssignmentStatus = "pending_return"
	AssignmentReturned          AssignmentStatus = "returned"
)

var AssignmentStatuses = []AssignmentStatus{
	AssignmentPendingAcceptance, AssignmentActive, AssignmentPendingReturn, AssignmentReturned,
}

// OpenAssignmentStatuses mark an asset as currently held.
var OpenAssignmentStatuses = []AssignmentStatus{AssignmentPendingAcceptance, AssignmentActive}

func (s AssignmentStatus) IsOpen() bool {
	return s == AssignmentPendingAcceptance || s == AssignmentActive
}

type EmployeeStatus string

const (
	EmployeeActive EmployeeStatus = "active"
	EmployeeLeft   EmployeeStatus = "left"
)

type AssetType string

const (
	AssetLaptop        AssetType = "laptop"
	AssetDesktop       AssetType = "desktop"
	AssetMonitor       AssetType = "monitor"
	AssetServer        AssetType = "server"
	AssetNetworkDevice AssetType = "network_device"
	AssetAccessory     AssetType = "accessory"
)

var AssetTypes = []AssetType{AssetLaptop, AssetDesktop, AssetMonitor, AssetServer, AssetNetworkDevice, AssetAccessory}

type Ownership string

const (
	OwnershipOrgA Ownership = "OrgA"
	OwnershipOrgB Ownership = "OrgB"
	OwnershipOrgC Ownership = "OrgC"
)

var Ownerships = []Ownership{OwnershipOrgA, OwnershipOrgB, OwnershipOrgC}

type ChangeType string

const (
	ChangeUpgrade      ChangeType = "upgrade"
	ChangeMaintenance  ChangeType = "maintenance"
	ChangeDamaged      ChangeType = "damaged"
	ChangeEmployeeLeft ChangeType = "employee_left"
	ChangeReassignment ChangeType = "reassignment"
	ChangeReplacement  ChangeType = "replacement"
	ChangeEndOfLife    ChangeType = "end_of_life"
	ChangeOther        ChangeType = "other"
)

var ChangeTypes = []ChangeType{
	ChangeUpgrade, ChangeMaintenance, ChangeDamaged, ChangeEmployeeLeft,
	ChangeReassignment, ChangeReplacement, ChangeEndOfLife, ChangeOther,
}

type MaintenanceType string

const (
	MaintenanceFormatting  MaintenanceType = "formatting"
	MaintenanceRepair      MaintenanceType = "repair"
	MaintenanceUpgrade     MaintenanceType = "upgrade"
	MaintenanceInspection  MaintenanceType = "inspection"
	MaintenanceReplacement MaintenanceType = "replacement"
)

var MaintenanceTypes = []MaintenanceType{
	MaintenanceFormatting, MaintenanceRepair, MaintenanceUpgrade, MaintenanceInspection, MaintenanceReplacement,
}

type Health string

const (
	HealthHealthy  Health = "healthy"
	HealthWarning  Health = "warning"
	HealthCritical Health = "critical"
)

var Healths = []Health{HealthHealthy, HealthWarning, HealthCritical}

type LocationType string

const (
	LocationOffice     LocationType = "office"
	LocationStorage    LocationType = "storage"
	LocationServerRoom LocationType = "server_room"
	LocationRack       LocationType = "rack"
)

var LocationTypes = []LocationType{LocationOffice, LocationStorage, LocationServerRoom, LocationRack}

// Strings converts any of the enum slices for validators and queries.
func Strings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
