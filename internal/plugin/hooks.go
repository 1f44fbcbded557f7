package plugin

// Element permission deciders (Ask)
const (
	HookElementCanView   = "element.can_view"
	HookElementCanEdit   = "element.can_edit"
	HookElementCanDelete = "element.can_delete"
	HookElementCanCreate = "element.can_create"
)

// Element lifecycle actions (Do)
const (
	HookElementAfterWrite    = "element.after_write"
	HookElementBeforePublish = "element.before_publish"
	HookElementAfterPublish  = "element.after_publish"
	HookElementAfterArchive  = "element.after_archive"
)

// FormUpdateEvent CMS 편집 폼 확장 Filter 이벤트 이름
func FormUpdateEvent(class string) string {
	return "forms.update." + class
}
