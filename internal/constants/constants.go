package constants

// User roles
const (
	RoleAdmin        = "Admin"
	RoleInvestigator = "Investigator"
	RoleAnalyst      = "Analyst"
	RoleViewer       = "Viewer"
)

var AllRoles = []string{RoleAdmin, RoleInvestigator, RoleAnalyst, RoleViewer}

// Permission actions checked against a role
const (
	PermView        = "view"
	PermCreate      = "create"
	PermEdit        = "edit"
	PermDelete      = "delete"
	PermManageUsers = "manage_users"
)

// Case status
const (
	StatusPending            = "Pending"
	StatusUnderInvestigation = "Under Investigation"
	StatusResolved           = "Resolved"
	StatusClosed             = "Closed"
)

var AllStatuses = []string{StatusPending, StatusUnderInvestigation, StatusResolved, StatusClosed}

// Case priority, ordered from lowest to highest
const (
	PriorityLow      = "Low"
	PriorityMedium   = "Medium"
	PriorityHigh     = "High"
	PriorityCritical = "Critical"
)

var AllPriorities = []string{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

// PriorityRank returns the position of p in AllPriorities, or -1.
func PriorityRank(p string) int {
	for i, v := range AllPriorities {
		if v == p {
			return i
		}
	}
	return -1
}

// Crime types offered at intake
const (
	CrimeHacking       = "Hacking"
	CrimePhishing      = "Phishing"
	CrimeIdentityTheft = "Identity Theft"
	CrimeOnlineFraud   = "Online Fraud"
	CrimeMalware       = "Malware"
	CrimeRansomware    = "Ransomware"
	CrimeCyberstalking = "Cyberstalking"
	CrimeDataBreach    = "Data Breach"
	CrimeOther         = "Other"
)

var AllCrimeTypes = []string{
	CrimeHacking, CrimePhishing, CrimeIdentityTheft, CrimeOnlineFraud,
	CrimeMalware, CrimeRansomware, CrimeCyberstalking, CrimeDataBreach, CrimeOther,
}

// FilterAll disables a status or crime type filter.
const FilterAll = "all"

// Activity log actions
const (
	ActionLogin          = "LOGIN"
	ActionLogout         = "LOGOUT"
	ActionLoginFailed    = "LOGIN_FAILED"
	ActionCreateCase     = "CREATE_CASE"
	ActionUpdateCase     = "UPDATE_CASE"
	ActionCreateUser     = "CREATE_USER"
	ActionDeactivateUser = "DEACTIVATE_USER"
	ActionPasswordChange = "PASSWORD_CHANGE"
	ActionPasswordReset  = "PASSWORD_RESET"
)

// Report types
const (
	ReportMonthly   = "monthly"
	ReportCrimeType = "crime_type"
	ReportStatus    = "status"
	ReportCustom    = "custom"
)

var AllReportTypes = []string{ReportMonthly, ReportCrimeType, ReportStatus, ReportCustom}

// Page sizes per view
const (
	PageSizeRecent = 10
	PageSizeSearch = 15
	PageSizeList   = 20
	PageSizeUsers  = 10
)

// Default system username for rows written without a session.
const SystemUser = "system"

// WebSocket channels
const (
	ChannelDashboard = "dashboard"
	ChannelCases     = "cases"
)
