package report

// CategoryType classifies an account line.
type CategoryType string

const (
	TypeIncome  CategoryType = "income"
	TypeCOGS    CategoryType = "cogs"
	TypeExpense CategoryType = "expense"
	TypeOther   CategoryType = "other"
)

func (t CategoryType) valid() bool {
	switch t {
	case TypeIncome, TypeCOGS, TypeExpense, TypeOther:
		return true
	}
	return false
}

// Report is the normalized result of parsing one income statement.
type Report struct {
	Metadata    Metadata        `json:"metadata"`
	Categories  []Category      `json:"categories"`
	MonthlyData []MonthlyAmount `json:"monthly_data"`
	Totals      Totals          `json:"totals"`
}

// Metadata describes the reporting period and the size of the record set.
type Metadata struct {
	ReportPeriod    string   `json:"report_period"`
	PeriodStart     string   `json:"period_start"`
	PeriodEnd       string   `json:"period_end"`
	UploadDate      string   `json:"upload_date"`
	TotalCategories int      `json:"total_categories"`
	TotalDataPoints int      `json:"total_data_points"`
	MonthColumns    []string `json:"month_columns"`
}

// Category is one account line of the statement.
type Category struct {
	CategoryID    string       `json:"category_id"`
	AccountName   string       `json:"account_name"`
	CategoryLevel int          `json:"category_level"`
	CategoryType  CategoryType `json:"category_type"`
	// ParentID references an earlier CategoryID; nil for roots.
	ParentID *string `json:"parent_category_id"`
	// ParentName is the parent's account name, kept for consumers that
	// group by label.
	ParentName   *string `json:"parent_category"`
	IsTotal      bool    `json:"is_total"`
	DisplayOrder int     `json:"display_order"`
}

// MonthlyAmount is the value of one category for one month column.
type MonthlyAmount struct {
	CategoryID  string  `json:"category_id"`
	AccountName string  `json:"account_name"`
	MonthYear   string  `json:"month_year"`
	Amount      float64 `json:"amount"`
}

// Totals holds the summary aggregates. A nil field means the corresponding
// summary row was not present in the statement.
type Totals struct {
	TotalOperatingIncome  *float64 `json:"total_operating_income"`
	TotalCOGS             *float64 `json:"total_cogs"`
	RealRevenue           *float64 `json:"real_revenue"`
	TotalOperatingExpense *float64 `json:"total_operating_expense"`
	NOI                   *float64 `json:"noi"`
	TotalIncome           *float64 `json:"total_income"`
	TotalExpense          *float64 `json:"total_expense"`
	NetIncome             *float64 `json:"net_income"`
}

// Total keys accepted by the rule table.
const (
	TotalKeyOperatingIncome  = "total_operating_income"
	TotalKeyCOGS             = "total_cogs"
	TotalKeyRealRevenue      = "real_revenue"
	TotalKeyOperatingExpense = "total_operating_expense"
	TotalKeyNOI              = "noi"
	TotalKeyIncome           = "total_income"
	TotalKeyExpense          = "total_expense"
	TotalKeyNetIncome        = "net_income"
)

// field returns the slot for key, or nil for an unknown key.
func (t *Totals) field(key string) **float64 {
	switch key {
	case TotalKeyOperatingIncome:
		return &t.TotalOperatingIncome
	case TotalKeyCOGS:
		return &t.TotalCOGS
	case TotalKeyRealRevenue:
		return &t.RealRevenue
	case TotalKeyOperatingExpense:
		return &t.TotalOperatingExpense
	case TotalKeyNOI:
		return &t.NOI
	case TotalKeyIncome:
		return &t.TotalIncome
	case TotalKeyExpense:
		return &t.TotalExpense
	case TotalKeyNetIncome:
		return &t.NetIncome
	}
	return nil
}

// Get returns the value for key and whether it is present.
func (t *Totals) Get(key string) (float64, bool) {
	slot := t.field(key)
	if slot == nil || *slot == nil {
		return 0, false
	}
	return **slot, true
}
