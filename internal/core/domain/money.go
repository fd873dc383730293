package domain

// Money is an amount in the smallest currency unit (rupiah has no minor unit in practice).
type Money int64
