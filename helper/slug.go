package helper

import (
	"fmt"

	"github.com/gosimple/slug"
)

// GenerateUniqueSlug tạo slug từ tên, thêm hậu tố -1, -2... nếu đã tồn tại
func GenerateUniqueSlug(name string, exists func(slug string) (bool, error)) (string, error) {
	base := slug.Make(name)
	result := base
	i := 1

	for {
		taken, err := exists(result)
		if err != nil {
			return "", err
		}
		if !taken {
			break
		}
		result = fmt.Sprintf("%s-%d", base, i)
		i++
	}

	return result, nil
}
