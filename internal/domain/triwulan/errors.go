package triwulan

import "errors"

var (
	ErrCandidateNotFound   = errors.New("kandidat tidak ditemukan")
	ErrCandidateExists     = errors.New("pegawai sudah menjadi kandidat triwulan ini")
	ErrUserNotFound        = errors.New("pegawai tidak ditemukan")
	ErrNotEligible         = errors.New("admin tidak ikut memberikan suara")
	ErrAlreadyVoted        = errors.New("anda sudah memberikan suara triwulan ini")
	ErrSelfVote            = errors.New("tidak dapat memilih atau menilai diri sendiri")
	ErrScoreCount          = errors.New("penilaian harus berisi 13 kriteria")
	ErrScoreOutOfRange     = errors.New("nilai kriteria harus antara 1 dan 10")
	ErrTooManyRatings      = errors.New("maksimal 5 kandidat dapat dinilai")
	ErrNoCandidates        = errors.New("belum ada kandidat yang dinilai")
	ErrWinnerNotFound      = errors.New("pemenang triwulan belum ditentukan")
	ErrMonthOutsideQuarter = errors.New("bulan tidak termasuk dalam triwulan")
	ErrReasonTooLong       = errors.New("alasan nominasi terlalu panjang")
	ErrNoteTooLong         = errors.New("catatan terlalu panjang")
)
