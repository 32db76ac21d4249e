// Package article holds the parent records references belong to, the
// policy deciding who may manage them and the public article image upload.
package article
