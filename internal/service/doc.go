// Package service contains the application-specific use cases and business
// logic. It orchestrates interactions between domain objects, repositories
// (defined in internal/store), media storage, and the task scheduler to
// fulfill application features.
//
// Key components:
//
// 1. Service Interfaces:
//   - Define application-specific operations available to the delivery mechanisms
//   - Each service focuses on a specific domain area: UserService handles
//     accounts and token pairs, VideoService handles uploads and ffmpeg
//     render submission, AnalysisService handles AI transcript analysis
//
// 2. Background Work:
//   - Mutating media and AI operations validate inputs synchronously, then
//     submit the heavy work to the task scheduler and return the task ID
//   - Work functions report progress stage by stage so clients can poll
//
// 3. Dependency Management:
//   - Services receive dependencies through constructor injection
//   - Core dependencies include stores, the media storage root, the ffmpeg
//     runner, the scheduler, and AI provider clients
//
// 4. Error Handling:
//   - Translate store and provider errors to service-level sentinels
//   - Wrap unexpected failures with operation context for API responses
//
// The service layer depends on domain entities and repository interfaces
// (from store), but never on specific infrastructure implementations.
package service
