package inspection

import (
	"strings"

	"github.com/aport-academy/appraisal-api/internal/store"
)

// ChecklistSchemas holds the ordered inspection points per category. These
// are configuration data: labels are stored verbatim in record checklists.
var ChecklistSchemas = map[store.Category][]string{
	store.CategorySmartphone: {
		"Экран/Выгорание",
		"FaceID/TouchID",
		"АКБ (%)",
		"Корпус/Вмятины",
		"Камеры",
		"TrueTone",
		"iCloud/Google",
	},
	store.CategoryLaptop: {
		"Матрица",
		"Клавиатура",
		"Петли",
		"Порты/Зарядка",
		"SSD Health",
		"iCloud/BIOS Lock",
	},
	store.CategoryAirPods: {
		"Звук/Хрипы",
		"Микрофоны",
		"Кейс (зарядка)",
		"Серийник/3uTools",
		"Сетки",
	},
	store.CategoryWatch: {
		"Сенсор/Колесо",
		"Ремешок",
		"Пульс/ЭКГ",
		"Отвязка ID",
	},
}

// CategoryOrder fixes the presentation order of the schemas.
var CategoryOrder = []store.Category{
	store.CategorySmartphone,
	store.CategoryLaptop,
	store.CategoryAirPods,
	store.CategoryWatch,
}

var blacklistPhones = map[string]struct{}{
	"77771112233": {},
	"7071234567":  {},
}

// PhoneBlacklisted normalizes the number to bare digits before lookup, so
// formatting variants of a listed number are still caught.
func PhoneBlacklisted(phone string) bool {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	_, listed := blacklistPhones[digits.String()]
	return listed
}
