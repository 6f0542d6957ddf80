package innertube

// PlayerResponse is the envelope returned by the /player endpoint.
type PlayerResponse struct {
	PlayabilityStatus PlayabilityStatus `json:"playabilityStatus"`
	StreamingData     StreamingData     `json:"streamingData"`
	VideoDetails      VideoDetails      `json:"videoDetails"`
	Microformat       Microformat       `json:"microformat"`
}

type PlayabilityStatus struct {
	Status   string   `json:"status"`
	Reason   string   `json:"reason"`
	Messages []string `json:"messages"`
}

type StreamingData struct {
	ExpiresInSeconds string   `json:"expiresInSeconds"`
	Formats          []Format `json:"formats"`
	AdaptiveFormats  []Format `json:"adaptiveFormats"`
}

// Format is one raw stream descriptor as the platform reports it. Numeric
// fields the platform serializes as strings stay strings here; the extractor
// normalizes them.
type Format struct {
	Itag             int    `json:"itag"`
	URL              string `json:"url"`
	MimeType         string `json:"mimeType"`
	Bitrate          int    `json:"bitrate"`
	AverageBitrate   int    `json:"averageBitrate"`
	Width            int    `json:"width"`
	Height           int    `json:"height"`
	FPS              int    `json:"fps"`
	ContentLength    string `json:"contentLength"`
	Quality          string `json:"quality"`
	QualityLabel     string `json:"qualityLabel"`
	AudioQuality     string `json:"audioQuality"`
	AudioSampleRate  string `json:"audioSampleRate"`
	AudioChannels    int    `json:"audioChannels"`
	ApproxDurationMs string `json:"approxDurationMs"`
	SignatureCipher  string `json:"signatureCipher"`
	Cipher           string `json:"cipher"` // legacy name for signatureCipher
}

type VideoDetails struct {
	VideoID          string           `json:"videoId"`
	Title            string           `json:"title"`
	LengthSeconds    string           `json:"lengthSeconds"`
	ChannelID        string           `json:"channelId"`
	ShortDescription string           `json:"shortDescription"`
	Thumbnail        ThumbnailDetails `json:"thumbnail"`
	ViewCount        string           `json:"viewCount"`
	Author           string           `json:"author"`
	IsLiveContent    bool             `json:"isLiveContent"`
}

type ThumbnailDetails struct {
	Thumbnails []Thumbnail `json:"thumbnails"`
}

type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type Microformat struct {
	PlayerMicroformatRenderer PlayerMicroformatRenderer `json:"playerMicroformatRenderer"`
}

type PlayerMicroformatRenderer struct {
	Title            SimpleText `json:"title"`
	LengthSeconds    string     `json:"lengthSeconds"`
	OwnerChannelName string     `json:"ownerChannelName"`
	ViewCount        string     `json:"viewCount"`
}

type SimpleText struct {
	SimpleText string `json:"simpleText"`
}

// BrowseResponse is the envelope returned by the /browse endpoint. Only the
// paths the playlist walker traverses are modeled.
type BrowseResponse struct {
	Header                    BrowseHeader               `json:"header"`
	Metadata                  BrowseMetadata             `json:"metadata"`
	Contents                  BrowseContents             `json:"contents"`
	OnResponseReceivedActions []OnResponseReceivedAction `json:"onResponseReceivedActions"`
}

type BrowseHeader struct {
	PlaylistHeaderRenderer PlaylistHeaderRenderer `json:"playlistHeaderRenderer"`
}

type PlaylistHeaderRenderer struct {
	Title SimpleText `json:"title"`
}

type BrowseMetadata struct {
	PlaylistMetadataRenderer PlaylistMetadataRenderer `json:"playlistMetadataRenderer"`
}

type PlaylistMetadataRenderer struct {
	Title string `json:"title"`
}

type BrowseContents struct {
	TwoColumnBrowseResultsRenderer TwoColumnBrowseResultsRenderer `json:"twoColumnBrowseResultsRenderer"`
}

type TwoColumnBrowseResultsRenderer struct {
	Tabs []Tab `json:"tabs"`
}

type Tab struct {
	TabRenderer TabRenderer `json:"tabRenderer"`
}

type TabRenderer struct {
	Content TabContent `json:"content"`
}

type TabContent struct {
	SectionListRenderer SectionListRenderer `json:"sectionListRenderer"`
}

type SectionListRenderer struct {
	Contents []SectionListContent `json:"contents"`
}

type SectionListContent struct {
	ItemSectionRenderer ItemSectionRenderer `json:"itemSectionRenderer"`
}

type ItemSectionRenderer struct {
	Contents []ItemSectionContent `json:"contents"`
}

type ItemSectionContent struct {
	PlaylistVideoListRenderer PlaylistVideoListRenderer `json:"playlistVideoListRenderer"`
}

type PlaylistVideoListRenderer struct {
	Contents []PlaylistItem `json:"contents"`
}

// PlaylistItem is either a video entry or the trailing continuation sentinel.
type PlaylistItem struct {
	PlaylistVideoRenderer    *PlaylistVideoRenderer    `json:"playlistVideoRenderer"`
	ContinuationItemRenderer *ContinuationItemRenderer `json:"continuationItemRenderer"`
}

type PlaylistVideoRenderer struct {
	VideoID       string     `json:"videoId"`
	Title         RunsText   `json:"title"`
	LengthSeconds string     `json:"lengthSeconds"`
	Index         SimpleText `json:"index"`
}

type ContinuationItemRenderer struct {
	ContinuationEndpoint ContinuationEndpoint `json:"continuationEndpoint"`
}

type ContinuationEndpoint struct {
	ContinuationCommand ContinuationCommand `json:"continuationCommand"`
}

type ContinuationCommand struct {
	Token string `json:"token"`
}

type OnResponseReceivedAction struct {
	AppendContinuationItemsAction AppendContinuationItemsAction `json:"appendContinuationItemsAction"`
}

type AppendContinuationItemsAction struct {
	ContinuationItems []PlaylistItem `json:"continuationItems"`
}

// RunsText covers the two text encodings browse responses use.
type RunsText struct {
	SimpleText string    `json:"simpleText"`
	Runs       []TextRun `json:"runs"`
}

type TextRun struct {
	Text string `json:"text"`
}

// Text returns the first available rendering of the text.
func (t RunsText) Text() string {
	if t.SimpleText != "" {
		return t.SimpleText
	}
	if len(t.Runs) > 0 {
		return t.Runs[0].Text
	}
	return ""
}
