package repository

import "errors"

// ErrInUse: строку нельзя удалить, на неё ещё ссылаются другие таблицы.
// Проверка делается до DELETE, поэтому не зависит от того, как драйвер
// сообщает о нарушении ON DELETE RESTRICT.
var ErrInUse = errors.New("row is still referenced")
