package assessment

import "strings"

type Aspect struct {
	Key        string   `json:"key"`
	Name       string   `json:"name"`
	Indicators []string `json:"indicators"`
}

// Catalog lists the BerAKHLAK core values in display order.
var Catalog = []Aspect{
	{
		Key:  "berorientasi_pelayanan",
		Name: "Berorientasi Pelayanan",
		Indicators: []string{
			"Memahami dan memenuhi kebutuhan masyarakat",
			"Ramah, cekatan, solutif, dan dapat diandalkan",
			"Melakukan perbaikan tiada henti",
		},
	},
	{
		Key:  "akuntabel",
		Name: "Akuntabel",
		Indicators: []string{
			"Melaksanakan tugas dengan jujur, bertanggung jawab, cermat, disiplin dan berintegritas tinggi",
			"Menggunakan kekayaan dan barang milik negara secara bertanggung jawab, efektif, dan efisien",
			"Tidak menyalahgunakan kewenangan jabatan",
		},
	},
	{
		Key:  "kompeten",
		Name: "Kompeten",
		Indicators: []string{
			"Meningkatkan kompetensi diri untuk menjawab tantangan yang selalu berubah",
			"Membantu orang lain belajar",
			"Melaksanakan tugas dengan kualitas terbaik",
		},
	},
	{
		Key:  "harmonis",
		Name: "Harmonis",
		Indicators: []string{
			"Menghargai setiap orang apapun latar belakangnya",
			"Suka menolong orang lain",
			"Membangun lingkungan kerja yang kondusif",
		},
	},
	{
		Key:  "loyal",
		Name: "Loyal",
		Indicators: []string{
			"Memegang teguh ideologi Pancasila dan UUD 1945",
			"Menjaga nama baik sesama ASN, pimpinan, instansi, dan negara",
			"Menjaga rahasia jabatan dan negara",
		},
	},
	{
		Key:  "adaptif",
		Name: "Adaptif",
		Indicators: []string{
			"Cepat menyesuaikan diri menghadapi perubahan",
			"Terus berinovasi dan mengembangkan kreativitas",
			"Bertindak proaktif",
		},
	},
	{
		Key:  "kolaboratif",
		Name: "Kolaboratif",
		Indicators: []string{
			"Memberi kesempatan kepada berbagai pihak untuk berkontribusi",
			"Terbuka dalam bekerja sama untuk menghasilkan nilai tambah",
			"Menggerakkan pemanfaatan berbagai sumber daya untuk tujuan bersama",
		},
	},
}

// LookupAspect matches by key or display name, ignoring case.
func LookupAspect(value string) (Aspect, bool) {
	needle := strings.ToLower(strings.TrimSpace(value))
	for _, a := range Catalog {
		if a.Key == needle || strings.ToLower(a.Name) == needle {
			return a, true
		}
	}
	return Aspect{}, false
}

// AspectOrder returns the display position of an aspect name; unknown names sort last.
func AspectOrder(name string) int {
	for i, a := range Catalog {
		if a.Name == name {
			return i
		}
	}
	return len(Catalog)
}
