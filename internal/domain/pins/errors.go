package pins

import "errors"

var (
	ErrNoPinsLeft       = errors.New("Anda sudah menggunakan semua pin minggu ini")
	ErrDuplicatePin     = errors.New("Anda sudah memberikan pin kepada pengguna ini minggu ini")
	ErrSelfPin          = errors.New("Anda tidak dapat memberikan pin kepada diri sendiri")
	ErrReceiverNotFound = errors.New("penerima pin tidak ditemukan")
	ErrMessageTooLong   = errors.New("pesan pin terlalu panjang")
	ErrReceiverRequired = errors.New("penerima pin wajib diisi")
	ErrInvalidMonth     = errors.New("bulan harus antara 1 dan 12")
)
