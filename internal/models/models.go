package models

const (
	// GroupDynamicItem marks a column that reads from Row.DynamicItem.
	GroupDynamicItem = "DynamicItem"
	// ValueTypeDynamicData names the record shape stored in the sparse map.
	ValueTypeDynamicData = "DynamicData"
)

type ColumnDescriptor struct {
	Group     string `json:"group"`
	Key       string `json:"key"`
	ValueType string `json:"value_type"`
}

type GridState string

const (
	StateEmpty  GridState = "empty"
	StateLoaded GridState = "loaded"
)

// --- API payloads ---

type Cell struct {
	Key   string       `json:"key"`
	Value *DynamicData `json:"value"`
}

type RowView struct {
	Index int    `json:"index"`
	A     string `json:"a"`
	B     string `json:"b"`
	Cells []Cell `json:"cells"`
}

type GridView struct {
	Snapshot   string             `json:"snapshot"`
	Generation uint64             `json:"generation"`
	State      GridState          `json:"state"`
	Columns    []ColumnDescriptor `json:"columns"`
	Rows       []RowView          `json:"rows"`
	Total      int                `json:"total"`
	Limit      int                `json:"limit"`
	Offset     int                `json:"offset"`
}

type ColumnCoverage struct {
	Key       string  `json:"key"`
	Populated int     `json:"populated"`
	Ratio     float64 `json:"ratio"`
}

type CoverageReport struct {
	Rows    int              `json:"rows"`
	Columns []ColumnCoverage `json:"columns"`
	// Cells is the number of populated (row, column) pairs.
	Cells int `json:"cells"`
}

// ChangeSummary answers a mutating request.
type ChangeSummary struct {
	Snapshot   string             `json:"snapshot"`
	Generation uint64             `json:"generation"`
	State      GridState          `json:"state"`
	Rows       int                `json:"rows"`
	Columns    []ColumnDescriptor `json:"columns"`
	Warning    string             `json:"warning,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type ReloadRequest struct {
	Rows    *int  `json:"rows"`
	Shuffle *bool `json:"shuffle"`
}

type AddColumnRequest struct {
	Key string `json:"key"`
}
