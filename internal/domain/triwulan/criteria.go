package triwulan

// Criteria are the fixed rating dimensions, in the order of the scores array.
var Criteria = []string{
	"Integritas",
	"Disiplin",
	"Tanggung jawab",
	"Kualitas kerja",
	"Kuantitas kerja",
	"Inisiatif",
	"Kerja sama",
	"Komunikasi",
	"Kepemimpinan",
	"Orientasi pelayanan",
	"Inovasi",
	"Kemampuan beradaptasi",
	"Pengembangan diri",
}

const (
	CriteriaCount      = 13
	MinScore           = 1
	MaxScore           = 10
	MaxRatedCandidates = 5
	MaxReasonLength    = 1000
	MaxNoteLength      = 2000
)
