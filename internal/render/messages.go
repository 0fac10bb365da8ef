package render

import "strings"

// Messages is the set of user-visible strings for one locale.
type Messages struct {
	Locale string

	TabOverview   string
	TabActivities string
	TabWeekly     string
	TabLogs       string

	Cycling      string
	Running      string
	CyclingKm    string
	RunningKm    string
	CyclingHours string
	RunningHours string
	Unknown      string

	KmUnit    string
	SpeedUnit string

	ChartWeeklyVolume   string
	ChartActivityTypes  string
	ChartWeeklyDistance string
	ChartWeeklyTime     string

	CardCyclingWeek  string
	CardRunningWeek  string
	CardActivities   string
	CardLastSync     string
	ActivitiesCount  string
	StatusError      string
	StatusSuccess    string
	NeverSynced      string
	SyncedActivities string
	SyncErrorPrefix  string

	ActivityHeaders []string
	WeeklyHeaders   []string

	NoActivities  string
	NoWeeklyStats string
	NoSyncLogs    string

	Loading              string
	Syncing              string
	SyncStarted          string
	SyncAlreadyRunning   string
	SyncFailed           string
	LoadFailed           string
	LoadActivitiesFailed string
	LoadWeeklyFailed     string
	LoadLogsFailed       string

	FilterStart string
	FilterEnd   string
	FilterType  string
	Help        string
}

var russian = Messages{
	Locale: "ru",

	TabOverview:   "Обзор",
	TabActivities: "Активности",
	TabWeekly:     "Недельная статистика",
	TabLogs:       "Логи синхронизации",

	Cycling:      "Велосипед",
	Running:      "Бег",
	CyclingKm:    "Велосипед (км)",
	RunningKm:    "Бег (км)",
	CyclingHours: "Велосипед (часы)",
	RunningHours: "Бег (часы)",
	Unknown:      "Неизвестно",

	KmUnit:    "км",
	SpeedUnit: "км/ч",

	ChartWeeklyVolume:   "Недельный объём",
	ChartActivityTypes:  "Типы активностей",
	ChartWeeklyDistance: "Дистанция по неделям",
	ChartWeeklyTime:     "Время по неделям",

	CardCyclingWeek:  "Велосипед за неделю",
	CardRunningWeek:  "Бег за неделю",
	CardActivities:   "Активностей за неделю",
	CardLastSync:     "Последняя синхронизация",
	ActivitiesCount:  "%d активностей",
	StatusError:      "Ошибка",
	StatusSuccess:    "Успешно",
	NeverSynced:      "Никогда",
	SyncedActivities: "Синхронизировано активностей: %d",
	SyncErrorPrefix:  "Ошибка",

	ActivityHeaders: []string{"Дата", "Название", "Тип", "Время", "Дистанция", "Скорость", "Пульс", "Мощность", "NP", "Каденс", "TSS"},
	WeeklyHeaders:   []string{"Неделя", "Велосипед (км)", "Время", "Бег (км)", "Время", "Активностей", "HRV"},

	NoActivities:  "Нет данных о тренировках",
	NoWeeklyStats: "Нет данных о недельной статистике",
	NoSyncLogs:    "Нет логов синхронизации",

	Loading:              "Загрузка...",
	Syncing:              "Синхронизация...",
	SyncStarted:          "Синхронизация запущена в фоновом режиме",
	SyncAlreadyRunning:   "Синхронизация уже выполняется",
	SyncFailed:           "Ошибка синхронизации",
	LoadFailed:           "Ошибка загрузки данных",
	LoadActivitiesFailed: "Ошибка загрузки активностей",
	LoadWeeklyFailed:     "Ошибка загрузки статистики",
	LoadLogsFailed:       "Ошибка загрузки логов",

	FilterStart: "С даты",
	FilterEnd:   "По дату",
	FilterType:  "Тип",
	Help:        "1-4/tab вкладки • r обновить • s синхронизация • / фильтры • q выход",
}

var english = Messages{
	Locale: "en",

	TabOverview:   "Overview",
	TabActivities: "Activities",
	TabWeekly:     "Weekly stats",
	TabLogs:       "Sync logs",

	Cycling:      "Cycling",
	Running:      "Running",
	CyclingKm:    "Cycling (km)",
	RunningKm:    "Running (km)",
	CyclingHours: "Cycling (hours)",
	RunningHours: "Running (hours)",
	Unknown:      "Unknown",

	KmUnit:    "km",
	SpeedUnit: "km/h",

	ChartWeeklyVolume:   "Weekly volume",
	ChartActivityTypes:  "Activity types",
	ChartWeeklyDistance: "Distance per week",
	ChartWeeklyTime:     "Time per week",

	CardCyclingWeek:  "Cycling this week",
	CardRunningWeek:  "Running this week",
	CardActivities:   "Activities this week",
	CardLastSync:     "Last sync",
	ActivitiesCount:  "%d activities",
	StatusError:      "Error",
	StatusSuccess:    "Success",
	NeverSynced:      "Never",
	SyncedActivities: "Activities synced: %d",
	SyncErrorPrefix:  "Error",

	ActivityHeaders: []string{"Date", "Name", "Type", "Time", "Distance", "Speed", "HR", "Power", "NP", "Cadence", "TSS"},
	WeeklyHeaders:   []string{"Week", "Cycling (km)", "Time", "Running (km)", "Time", "Activities", "HRV"},

	NoActivities:  "No activity data",
	NoWeeklyStats: "No weekly statistics",
	NoSyncLogs:    "No sync logs",

	Loading:              "Loading...",
	Syncing:              "Syncing...",
	SyncStarted:          "Sync started in the background",
	SyncAlreadyRunning:   "A sync is already running",
	SyncFailed:           "Sync failed",
	LoadFailed:           "Failed to load data",
	LoadActivitiesFailed: "Failed to load activities",
	LoadWeeklyFailed:     "Failed to load weekly stats",
	LoadLogsFailed:       "Failed to load sync logs",

	FilterStart: "From",
	FilterEnd:   "To",
	FilterType:  "Type",
	Help:        "1-4/tab switch • r reload • s sync • / filters • q quit",
}

// Locale returns the catalog for code. Unknown codes fall back to Russian.
func Locale(code string) Messages {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "en", "en-us", "en-gb", "english":
		return english
	default:
		return russian
	}
}
