// Package genre maps free-text signals onto a fixed set of destination
// folders. Classification is total: every input lands in exactly one
// bucket, with Other as the catch-all.
package genre

import "strings"

// Bucket is one genre destination folder
type Bucket string

// The fixed bucket taxonomy. Bucket names double as folder names.
const (
	Pop        Bucket = "Pop"
	Rock       Bucket = "Rock"
	Electronic Bucket = "Electronic & EDM"
	Classical  Bucket = "Classical"
	Arabic     Bucket = "Arabic & Middle Eastern"
	Bollywood  Bucket = "Bollywood & Indian Pop"
	Chill      Bucket = "Chill & Acoustic"
	Sufi       Bucket = "Sufi & Devotional"
	Party      Bucket = "Upbeat & Party"
	Other      Bucket = "Other"
)

// Buckets lists every bucket, catch-all last
var Buckets = []Bucket{
	Pop, Rock, Electronic, Classical,
	Arabic, Bollywood, Chill, Sufi, Party,
	Other,
}

// keywordRule maps a lowercase keyword to its bucket. The table is a
// slice, not a map: rule order is the tie-break when a signal contains
// several keywords, so it must stay deterministic.
type keywordRule struct {
	keyword string
	bucket  Bucket
}

var keywordTable = []keywordRule{
	{"arabic", Arabic},
	{"middle eastern", Arabic},
	{"bollywood", Bollywood},
	{"indian pop", Bollywood},
	{"sufi", Sufi},
	{"devotional", Sufi},
	{"chill", Chill},
	{"acoustic", Chill},
	{"upbeat", Party},
	{"party", Party},
	{"electronic", Electronic},
	{"edm", Electronic},
	{"dance", Electronic},
	{"classical", Classical},
	{"hip hop", Pop},
	{"rap", Pop},
	{"r&b", Pop},
	{"pop", Pop},
	{"metal", Rock},
	{"indie", Rock},
	{"rock", Rock},
}

// Classify picks the bucket for an ordered list of textual signals.
// Signals are checked in priority order (explicit genre tag first, then
// categories, tags, title, description); the first signal containing any
// mapped keyword decides the bucket, and within a signal the first rule
// in table order wins. No hit means Other.
func Classify(signals []string) Bucket {
	for _, signal := range signals {
		if signal == "" {
			continue
		}
		lower := strings.ToLower(signal)
		for _, rule := range keywordTable {
			if strings.Contains(lower, rule.keyword) {
				return rule.bucket
			}
		}
	}
	return Other
}

// IsBucketDir reports whether name is one of the bucket folder names.
// The directory walk uses this to avoid rescanning already-sorted files.
func IsBucketDir(name string) bool {
	for _, b := range Buckets {
		if string(b) == name {
			return true
		}
	}
	return false
}
