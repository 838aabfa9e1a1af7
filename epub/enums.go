package epub

// Specification of a doctor finding severity.
// ENUM(warning, error)
type Severity int
