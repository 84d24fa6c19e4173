package types

// OptionSelection is the snapshot of variant options chosen for a line item,
// e.g. {"color": "red", "size": "L"}. Stored as jsonb so later catalog edits
// never alter a placed order's record.
type OptionSelection map[string]string
