package profiles

import "errors"

var (
	ErrNotFound    = errors.New("pengguna tidak ditemukan")
	ErrEmailTaken  = errors.New("email sudah terdaftar")
	ErrSelfDelete  = errors.New("tidak dapat menghapus akun sendiri")
	ErrEmptyUpdate = errors.New("tidak ada perubahan")
)
