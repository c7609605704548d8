package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the run summary output.
	OutputMode string

	// DatabaseBackend represents the database backend for caching and history.
	DatabaseBackend string

	// NameFallback controls how file names without timestamp tokens are handled.
	NameFallback string

	// Compression represents the TIFF compression used by the compress command.
	Compression string
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// All name fallback strategies supported.
const (
	// FileFallback leaves date and time null only for the offending file.
	FileFallback NameFallback = "file" // default

	// BatchFallback nulls date and time for every file in the directory
	// as soon as one name has fewer than three tokens.
	BatchFallback NameFallback = "batch"
)

// All compression schemes supported when rewriting TIFF files.
const (
	DeflateCompression Compression = "deflate" // default
	NoCompression      Compression = "none"
)

// Output file names and layouts.
const (
	// SummaryFileName is the CSV written next to the source files.
	SummaryFileName = "red_dot_counts_sorted.csv"

	// RunFilePrefix prefixes CSVs written into an explicit output directory.
	RunFilePrefix = "count_"

	// RunTimeLayout formats the run timestamp used in output directory mode.
	RunTimeLayout = "20060102_150405"

	// NameTimeLayout parses the concatenated date and time tokens of a file name.
	NameTimeLayout = "20060102150405"

	// CSVTimeLayout formats the Datetime column.
	CSVTimeLayout = "2006-01-02 15:04:05"
)

// SummaryHeader is the exact column order of the per-directory CSV.
var SummaryHeader = []string{"Datetime", "Number", "Red Dot Count", "incubation hour"}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidNameFallbacks lists all valid name fallback strategies.
var ValidNameFallbacks = map[NameFallback]struct{}{
	FileFallback:  {},
	BatchFallback: {},
}

// ValidCompressions lists all valid compression schemes.
var ValidCompressions = map[Compression]struct{}{
	DeflateCompression: {},
	NoCompression:      {},
}
