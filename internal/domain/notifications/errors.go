package notifications

import "errors"

var ErrNotFound = errors.New("notifikasi tidak ditemukan")
