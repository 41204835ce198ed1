package transfer

// PostCreation is the multipart form body for scheduling a post. Media
// arrives as file parts next to these fields.
type PostCreation struct {
	Caption       string `form:"caption"`
	Title         string `form:"title"`
	ScheduledTime string `form:"scheduled_time"`
	SelectedPages string `form:"selected_pages"`
}
