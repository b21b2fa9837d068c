// Package postsign issues S3 presigned POST credentials: a policy document that
// constrains a single browser upload, signed with a SigV4 scoped signing key, so
// clients upload straight to the bucket without the file passing through this server.
//
// # Key Components
//
//   - NewScope: date stamp and credential scope ("20230101/us-east-1/s3/aws4_request")
//   - NewPolicy / Policy.Encode: the JSON policy document and its base64 form
//   - DeriveSigningKey: the four-step HMAC-SHA256 key derivation chain
//   - SignPolicy: hex HMAC-SHA256 of the base64 policy
//   - Presigner: assembles the above into a PresignedPost (URL + form fields)
//   - SlipService: server-generated keys plus a ledger of issued posts
//
// Credentials and region come from injected CredentialsProvider and RegionProvider
// implementations; see the keybackend package.
//
// # Example Usage
//
//	presigner, err := postsign.NewPresigner(ctx, postsign.UploadConfig{
//	    Bucket:            "example-bucket",
//	    ExpirationSeconds: 60,
//	    ContentLengthMax:  10 << 20,
//	}, creds, keybackend.StaticRegion("us-east-1"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	post, err := presigner.Presign(ctx, "uploads/abc")
//	// POST multipart/form-data to post.URL() with post.Fields() and a "file" part.
package postsign
