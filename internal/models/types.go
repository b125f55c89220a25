package models

// MediaType classifies a trackable item
type MediaType string

const (
	MediaTypeProjects   MediaType = "Projects"
	MediaTypeDuolingo   MediaType = "Duolingo"
	MediaTypeCourse     MediaType = "Course"
	MediaTypeMovie      MediaType = "Movie"
	MediaTypeSeries     MediaType = "Series"
	MediaTypeGame       MediaType = "Game"
	MediaTypeGameVR     MediaType = "Game (VR)"
	MediaTypeGameMobile MediaType = "Game (mobile)"
	MediaTypeBook       MediaType = "Book"
	MediaTypeBookEd     MediaType = "Book (educational)"
	MediaTypeBookComics MediaType = "Book (comics)"
	MediaTypeArticle    MediaType = "Article"
	MediaTypeVideo      MediaType = "Talk/video"
)

// Reserved shelf names. These three shelves are undated and always exist;
// everything else is a dated shelf created by the operator.
const (
	ShelfUpcoming = "Upcoming"
	ShelfBacklog  = "Backlog"
	ShelfIcebox   = "Icebox"
)

// Fixed weights for the reserved shelves. Dated shelves are weighted by the
// ordinal of their start date, which stays far below these constants, so the
// reserved shelves always sort after every dated shelf in the order
// Upcoming < Backlog < Icebox.
const (
	WeightUpcoming = 10000000
	WeightBacklog  = 10000001
	WeightIcebox   = 10000002
)

// Metadata keys carried on entries and sub-entries.
const (
	MetaTraktID = "trakt_id"
	MetaHLTBID  = "hltb_id"
	MetaSeason  = "season"
)
