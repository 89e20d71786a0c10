package output

// Config holds settings for run output.
type Config struct {
	// Dir is the directory output files are written to.
	Dir string `mapstructure:"dir" default:"Output"`
	// Prefix starts every output file name.
	Prefix string `mapstructure:"prefix" default:"clia"`
	// MaxRows caps the rows previewed per set on the console.
	MaxRows int `mapstructure:"max_rows" default:"20"`
	// Format is the console format (table, json, yaml). Empty auto-detects.
	Format string `mapstructure:"format" default:""`
}
