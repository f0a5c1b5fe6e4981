package config

// Profile is a complete rerun profile for one feed
type Profile struct {
	Feed     FeedSource       `yaml:"feed"`
	Schedule ScheduleSettings `yaml:"schedule"`
	Titles   TitleSettings    `yaml:"titles"`
	Output   OutputSettings   `yaml:"output"`
}

// FeedSource identifies the source document
type FeedSource struct {
	URL    string `yaml:"url"`    // remote source, downloaded to Path when set
	Path   string `yaml:"path"`   // local document path
	Format string `yaml:"format"` // "rss", "atom" or empty for auto-detection
}

// ScheduleSettings controls when and how entries are rebroadcast
type ScheduleSettings struct {
	Cron       string `yaml:"cron"`        // cron spec for daemon mode; empty means one-shot
	BatchSize  int    `yaml:"batch_size"`  // entries per rebroadcast
	Order      string `yaml:"order"`       // "chronological" or "shuffled"; empty keeps stored value
	RunForever *bool  `yaml:"run_forever"` // nil keeps stored value
}

// TitleSettings composes the republished feed and entry titles. Entry
// affixes are strftime patterns applied to each entry's original pubdate.
type TitleSettings struct {
	Prefix      string `yaml:"prefix"`
	Suffix      string `yaml:"suffix"`
	EntryPrefix string `yaml:"entry_prefix"`
	EntrySuffix string `yaml:"entry_suffix"`
}

// OutputSettings controls where and how the modified document is written
type OutputSettings struct {
	Path         string `yaml:"path"`          // defaults to the source path
	KeepMetadata *bool  `yaml:"keep_metadata"` // nil means keep (state must round-trip)
}
