// Package models defines the entities the novi front end exchanges with the content API.
//
// The package contains two categories of types:
//
// 1. Client state: identity records the front end persists for itself
//   - [Session] : the logged-in identity (email and display name)
//
// 2. Backend entities: records owned by the content API and only mirrored here
//   - [ContentItem] : a generated lesson or quiz
//   - [ContentFields] : a partial update to a content item
//   - [SavePayload] : a generated document submitted for storage
//   - [Upload] : a PDF submitted for conversion
//   - [UploadResult] : the HTML produced from an uploaded PDF
//   - [Profile] : the account record returned by login
//
// [ContentList] holds the in-memory list pages render, and [Summarize] derives dashboard
// statistics from it.
package models
