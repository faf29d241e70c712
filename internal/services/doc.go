// Package services talks to the remote systems songsaver depends on.
//
// # Catalog
//
// [SpotifyService] reads tracks, albums and playlists with the client credentials flow and maps
// them to [models.CatalogTrack] values. Responses are cached by request path in an injected
// [Cache] (an LRU by default) and requests are throttled by a [rate.Limiter].
//
// # Candidate search
//
// [YouTubeService] queries the FastAPI proxy wrapping ytmusicapi (GET /api/search) and picks the
// best candidate with [matcher.Score]. The optional auth file path is sent via the X-Auth-File
// header on each request.
//
// # Lyrics
//
// [LrclibService] fetches synced or plain lyrics from lrclib.net, falling back from an exact
// lookup to a search.
//
// # Error Handling
//
// Services wrap sentinels from the shared package:
//   - [shared.ErrMissingCredentials] : client id or secret absent
//   - [shared.ErrInvalidRef] : unparseable catalog URL, URI or id
//   - [shared.ErrNotFound] : remote 404
//   - [shared.ErrRateLimited] : remote 429
//   - [shared.ErrAPIRequest] : any other failed request
//   - [shared.ErrLyricsFailed] : lyrics transport failure
package services
