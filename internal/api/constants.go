package api

// CacheOneWeek is the Cache-Control value for immutable blobs.
const CacheOneWeek = "public, max-age=604800"
