package config

type Import struct {
	// MaxRowErrors bounds the row errors kept on an import job.
	MaxRowErrors int `env:"IMPORT_MAX_ROW_ERRORS" envDefault:"100"`
	// ProgressEvery is the number of rows between progress writes.
	ProgressEvery int `env:"IMPORT_PROGRESS_EVERY" envDefault:"25"`
}
