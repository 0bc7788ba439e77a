package domain

// CorrelationPair is the Pearson correlation of two symbols' daily profit series.
type CorrelationPair struct {
	SymbolA     string
	SymbolB     string
	Coefficient float64 // in [-1, 1]
	SampleSizeA int     // active trading days of SymbolA
	SampleSizeB int     // active trading days of SymbolB
}
