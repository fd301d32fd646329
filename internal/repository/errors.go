package repository

import "errors"

// 見つからないを統一
var ErrNotFound = errors.New("not found")

// 一意制約違反（メール・クーポンコード・slugなど）
var ErrConflict = errors.New("conflict")
